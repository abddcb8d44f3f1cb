package textutil

import "testing"

// Normalizeが大文字小文字・アクセント・空白の違いを吸収することを検証
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"小文字化", "Workman", "workman"},
		{"前後空白のトリム", "  projet  ", "projet"},
		{"ダイアクリティカルマーク除去", "Électricité", "electricite"},
		{"チルダとセディーユ", "São Façade", "sao facade"},
		{"既に正規化済み", "alpha", "alpha"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 同じ文字列に対して常に同じキーを返すことを検証
func TestNormalize_Deterministic(t *testing.T) {
	inputs := []string{"Café Client", "RÉUNION", "  mixed Case  "}
	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(in)
		if first != second {
			t.Errorf("Normalize(%q) is not deterministic: %q != %q", in, first, second)
		}
	}
}

// DisplayNameがタイトルケース変換と頭字語保持を行うことを検証
func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"小文字はタイトルケース化", "mon projet", "Mon Projet"},
		{"全大文字の頭字語は保持", "ANCT", "ANCT"},
		{"混在はタイトルケース化", "projet Alpha", "Projet Alpha"},
		{"前後空白はトリム", "  beta  ", "Beta"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsFullUppercase(t *testing.T) {
	if !IsFullUppercase("ABC") {
		t.Error("IsFullUppercase(\"ABC\") = false, want true")
	}
	if IsFullUppercase("Abc") {
		t.Error("IsFullUppercase(\"Abc\") = true, want false")
	}
}
