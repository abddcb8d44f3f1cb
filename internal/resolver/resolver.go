// Package resolver はカレンダーラベルとプロジェクトカタログの照合を提供する。
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/textutil"
)

// ProjectCatalog はリゾルバが必要とするカタログ操作のインターフェース。
type ProjectCatalog interface {
	// ListByCompany は企業の全プロジェクトを主キーの昇順で返す。
	// 同一階層内の候補の優先順位はこの順序で決まるため、順序は
	// リゾルバの再生成をまたいで安定でなければならない。
	ListByCompany(ctx context.Context, companyID int64) ([]*model.Project, error)

	// ListAliasesByCompany は企業の全エイリアスを主キーの昇順で返す。
	ListAliasesByCompany(ctx context.Context, companyID int64) ([]*model.Alias, error)

	// Create はプロジェクトを作成しIDを採番する。
	// (normalized_name, company_id, start_date) の一意性制約と競合した
	// 場合は既存レコードを返し、重複を作らないこと。
	Create(ctx context.Context, project *model.Project) (*model.Project, error)
}

// 日付の特定度による3階層。番号が小さいほど優先される。
const (
	tierDatedBoth = 0 // 開始日・終了日の両方を持つ
	tierStartOnly = 1 // 開始日のみを持つ
	tierDateless  = 2 // どちらも持たない
	tierCount     = 3
)

// Resolver は(ラベル, 日付)の組をプロジェクトに解決する。
//
// 企業のプロジェクトを日付の特定度で3階層に分け、各階層で
// 正規化名（プロジェクト名と全エイリアス）→候補リストの索引を構築時に
// 1回だけ作る。キャッシュはインスタンス限定であり、1回の集計リクエストに
// つき1インスタンスを生成して使うこと。カタログが実行中に変異する場合、
// インスタンスを並行リクエスト間で共有してはならない。
type Resolver struct {
	catalog   ProjectCatalog
	companyID int64
	logger    *slog.Logger

	tiers [tierCount]map[string][]*model.Project

	// Created は解決中に自動作成したプロジェクト数。
	Created int
}

// New は企業のカタログを読み込んだリゾルバを生成する。
func New(ctx context.Context, catalog ProjectCatalog, companyID int64, logger *slog.Logger) (*Resolver, error) {
	r := &Resolver{
		catalog:   catalog,
		companyID: companyID,
		logger:    logger,
	}
	for i := range r.tiers {
		r.tiers[i] = make(map[string][]*model.Project)
	}

	projects, err := catalog.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトカタログの読み込みに失敗: %w", err)
	}
	byID := make(map[int64]*model.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		r.index(p, p.NormalizedName)
	}

	aliases, err := catalog.ListAliasesByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("エイリアスの読み込みに失敗: %w", err)
	}
	for _, a := range aliases {
		p, ok := byID[a.ProjectID]
		if !ok {
			continue
		}
		r.index(p, a.NormalizedName)
	}

	return r, nil
}

// index はプロジェクトが答える正規化名を該当階層に登録する。
func (r *Resolver) index(p *model.Project, key string) {
	tier := tierOf(p)
	r.tiers[tier][key] = append(r.tiers[tier][key], p)
}

// tierOf は日付の特定度からプロジェクトの階層を返す。
func tierOf(p *model.Project) int {
	switch {
	case p.StartDate != nil && p.EndDate != nil:
		return tierDatedBoth
	case p.StartDate != nil:
		return tierStartOnly
	default:
		return tierDateless
	}
}

// Resolve はラベルをプロジェクトに解決する。
//
// 階層は厳密な優先順位であり、日付付きプロジェクトはその期間について
// 同名の日付なしプロジェクトを覆い隠す。階層内では索引への登録順
// （主キー昇順）で最初に日付条件を満たした候補が勝つ。
// どの候補にも一致しない場合は日付なしプロジェクトを新規作成し、
// 直ちにキャッシュへ登録して返す。したがって同じ(ラベル, 日付)の
// 再解決が重複プロジェクトを作ることはない。
func (r *Resolver) Resolve(ctx context.Context, label string, day time.Time) (*model.Project, error) {
	displayName := textutil.DisplayName(label)
	key := textutil.Normalize(displayName)

	for tier := 0; tier < tierCount; tier++ {
		for _, candidate := range r.tiers[tier][key] {
			if candidate.CoversDate(day) {
				return candidate, nil
			}
		}
	}

	created, err := r.catalog.Create(ctx, &model.Project{
		CompanyID:      r.companyID,
		Name:           displayName,
		NormalizedName: key,
	})
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの自動作成に失敗: %w", err)
	}

	r.tiers[tierDateless][key] = append(r.tiers[tierDateless][key], created)
	r.Created++
	r.logger.Info("未知のラベルからプロジェクトを自動作成しました",
		slog.Int64("company_id", r.companyID),
		slog.Int64("project_id", created.ID),
		slog.String("name", created.Name),
	)

	return created, nil
}

// ResolveEvent はRawEventをプロジェクト・カテゴリ付きのResolvedEventに変換する。
// categoriesはカテゴリIDからカテゴリへの参照表で、nilでもよい。
func (r *Resolver) ResolveEvent(ctx context.Context, raw model.RawEvent, categories map[int64]*model.Category) (model.ResolvedEvent, error) {
	project, err := r.Resolve(ctx, raw.Label, raw.Day)
	if err != nil {
		return model.ResolvedEvent{}, err
	}

	resolved := model.ResolvedEvent{
		RawEvent:    raw,
		ProjectID:   project.ID,
		ProjectName: project.Name,
	}
	if project.CategoryID != nil {
		if cat, ok := categories[*project.CategoryID]; ok {
			resolved.Category = cat.Name
			resolved.CategoryWorkingTime = cat.IsWorkingTime
		}
	}
	return resolved, nil
}
