package config

import (
	"context"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

func TestGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":             "8080",
		"BAD_INT":          "eight",
		"COOKIE_SECURE":    "true",
		"ACCEPTED_ORIGINS": "https://a.dev, ,https://b.dev",
	}

	if got := GetInt(cfg, "PORT", 1); got != 8080 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetInt(cfg, "BAD_INT", 7); got != 7 {
		t.Errorf("GetInt fallback = %d", got)
	}
	if !GetBool(cfg, "COOKIE_SECURE", false) {
		t.Error("GetBool should parse true")
	}
	if GetBool(nil, "COOKIE_SECURE", false) {
		t.Error("GetBool on nil config should return default")
	}
	want := []string{"https://a.dev", "https://b.dev"}
	if got := GetStrings(cfg, "ACCEPTED_ORIGINS", nil); !reflect.DeepEqual(got, want) {
		t.Errorf("GetStrings = %#v", got)
	}
	if got := GetStrings(cfg, "MISSING", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("GetStrings default = %#v", got)
	}
}

type fakeSSM struct {
	pages []*ssm.GetParametersByPathOutput
	calls int
}

func (f *fakeSSM) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func TestOverlayParameters(t *testing.T) {
	client := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
		{
			Parameters: []types.Parameter{
				{Name: aws.String("/portfolio/prod/resend_api_key"), Value: aws.String("re_123")},
				{Name: aws.String("/portfolio/prod/PORT"), Value: aws.String("9999")},
			},
			NextToken: aws.String("next"),
		},
		{
			Parameters: []types.Parameter{
				{Name: aws.String("/portfolio/prod/twilio/auth_token"), Value: aws.String("tok")},
			},
		},
	}}

	cfg := map[string]string{"PORT": "8080"}
	n, err := overlayParameters(context.Background(), client, "/portfolio/prod", cfg)
	if err != nil {
		t.Fatalf("overlayParameters: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d parameters, want 2", n)
	}
	if cfg["RESEND_API_KEY"] != "re_123" {
		t.Errorf("RESEND_API_KEY = %q", cfg["RESEND_API_KEY"])
	}
	if cfg["TWILIO_AUTH_TOKEN"] != "tok" {
		t.Errorf("TWILIO_AUTH_TOKEN = %q", cfg["TWILIO_AUTH_TOKEN"])
	}
	if cfg["PORT"] != "8080" {
		t.Errorf("environment value should win, PORT = %q", cfg["PORT"])
	}
}

func TestLoadSSMWithoutPathIsNoop(t *testing.T) {
	n, err := LoadSSM(context.Background(), map[string]string{})
	if err != nil || n != 0 {
		t.Errorf("LoadSSM = %d, %v", n, err)
	}
}
