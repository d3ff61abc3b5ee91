package action

import "testing"

func TestBillable(t *testing.T) {
	for _, k := range Billable() {
		if !k.IsBillable() {
			t.Errorf("%s should be billable", k)
		}
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}

	for _, k := range []Kind{ViewBudgetDashboard, ViewBudgetManage} {
		if k.IsBillable() {
			t.Errorf("%s should not be billable", k)
		}
	}
}

func TestParse(t *testing.T) {
	for _, k := range All() {
		got, err := Parse(string(k))
		if err != nil {
			t.Fatalf("Parse(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("Parse(%q) = %q", k, got)
		}
	}

	if _, err := Parse("deduct_everything"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestExportType(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"single", ExportBudgetPDFSingle, false},
		{"history", ExportBudgetPDFHistory, false},
		{"csv", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			et, err := ParseExportType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseExportType(%q): %v", tt.input, err)
			}
			if et.Kind() != tt.want {
				t.Errorf("Kind() = %q, want %q", et.Kind(), tt.want)
			}
		})
	}
}
