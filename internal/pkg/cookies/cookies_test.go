package cookies

import "testing"

func TestParse_SemicolonFormat(t *testing.T) {
	cred := Parse("NID_AUT=abc; NID_SES=def;")
	if cred == nil {
		t.Fatal("expected credential")
	}
	if got := cred.Header(); got != "NID_AUT=abc; NID_SES=def;" {
		t.Fatalf("header = %q", got)
	}
}

func TestParse_LineFormat(t *testing.T) {
	cred := Parse("NID_AUT=abc\nNID_SES=def\n")
	if cred == nil {
		t.Fatal("expected credential")
	}
	if got := cred.Header(); got != "NID_AUT=abc; NID_SES=def;" {
		t.Fatalf("header = %q", got)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if cred := Parse("   \n  "); cred != nil {
		t.Fatalf("expected nil for blank input, got %+v", cred)
	}
}

func TestParse_SkipsMalformedFields(t *testing.T) {
	cred := Parse("NID_AUT=abc; garbage; =novalue; NID_SES=def")
	if cred == nil {
		t.Fatal("expected credential")
	}
	if got := cred.Header(); got != "NID_AUT=abc; NID_SES=def;" {
		t.Fatalf("header = %q", got)
	}
}

func TestParse_DuplicateNamesKeepLast(t *testing.T) {
	cred := Parse("NID_AUT=first; NID_AUT=second")
	if cred == nil {
		t.Fatal("expected credential")
	}
	if got := cred.Header(); got != "NID_AUT=second;" {
		t.Fatalf("header = %q", got)
	}
}

func TestParse_DuplicateKeepsOriginalPosition(t *testing.T) {
	cred := Parse("NID_AUT=a; NID_SES=b; NID_AUT=c")
	if cred == nil {
		t.Fatal("expected credential")
	}
	if got := cred.Header(); got != "NID_AUT=c; NID_SES=b;" {
		t.Fatalf("header = %q", got)
	}
}
