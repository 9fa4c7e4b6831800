package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadSSM overlays SecureString/String parameters stored under
// SSM_PARAMETER_PATH onto config. It is a no-op when the path is unset.
//
// A parameter named /portfolio/prod/resend_api_key under the path
// /portfolio/prod becomes the key RESEND_API_KEY. Values already present in
// the environment win over parameter store values.
func LoadSSM(ctx context.Context, config map[string]string) (int, error) {
	path := GetString(config, "SSM_PARAMETER_PATH", "")
	if path == "" {
		return 0, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region := GetString(config, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("load aws config: %w", err)
	}

	return overlayParameters(ctx, ssm.NewFromConfig(awsCfg), path, config)
}

func overlayParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string, config map[string]string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("read parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			key := parameterKey(path, aws.ToString(p.Name))
			if key == "" {
				continue
			}
			if _, exists := config[key]; exists {
				continue
			}
			config[key] = aws.ToString(p.Value)
			loaded++
		}
	}
	return loaded, nil
}

func parameterKey(path, name string) string {
	rel := strings.Trim(strings.TrimPrefix(name, path), "/")
	if rel == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(rel, "/", "_"))
}
