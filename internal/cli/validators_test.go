package cli

import "testing"

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"/page/article", false},
		{"/component/feature", false},
		{"", true},
		{"page/article", true},
		{"/page/my article", true},
	}

	for _, tt := range tests {
		err := ValidateContentType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateContentType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateItemPath(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"/site/website/index.xml", false},
		{"", true},
		{"site/website/index.xml", true},
		{"/site/../etc/passwd", true},
	}

	for _, tt := range tests {
		err := ValidateItemPath(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateItemPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		if err := ValidateOutputFormat(f); err != nil {
			t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", f, err)
		}
	}
	if err := ValidateOutputFormat("xml"); err == nil {
		t.Error("ValidateOutputFormat(xml) expected error")
	}
}

func TestValidatePageSize(t *testing.T) {
	options := []int{9, 15, 21}
	if err := ValidatePageSize(15, options); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePageSize(10, options); err == nil {
		t.Error("expected error for size outside options")
	}
	if err := ValidatePageSize(0, nil); err == nil {
		t.Error("expected error for zero size")
	}
	if err := ValidatePageSize(50, nil); err != nil {
		t.Errorf("unexpected error without options: %v", err)
	}
}
