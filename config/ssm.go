package config

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/portfolio-site/backend/errs"
)

// NewSSMClient builds a Parameter Store client from the default AWS credential chain.
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errs.NewConfigError("aws", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// OverlaySSM copies every parameter below prefix into c, keyed by the last path segment
// (/portfolio/prod/BLOG_JWT_SECRET -> BLOG_JWT_SECRET). Values already present in c win, so a
// local environment variable always overrides the shared store. It returns how many keys were set.
func OverlaySSM(ctx context.Context, c map[string]string, client ssm.GetParametersByPathAPIClient, prefix string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	set := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return set, errs.NewConfigError("SSM_PARAMETER_PATH", err)
		}
		for _, p := range page.Parameters {
			key := path.Base(aws.ToString(p.Name))
			if key == "" || key == "." || key == "/" {
				continue
			}
			if existing, ok := c[key]; ok && existing != "" {
				log.Debug().Str("key", key).Msg("environment overrides SSM parameter")
				continue
			}
			c[key] = aws.ToString(p.Value)
			set++
		}
	}
	return set, nil
}
