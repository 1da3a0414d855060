package config

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-site/backend/errs"
)

func TestGetters(t *testing.T) {
	c := map[string]string{
		"PORT":     "9090",
		"BAD_INT":  "nine",
		"FLAG":     "false",
		"DELAY":    "250ms",
		"SECONDS":  "3",
		"ORIGINS":  " http://a.test, ,http://b.test ",
		"EMPTYSTR": "",
	}

	assert.Equal(t, "9090", GetString(c, "PORT", "8080"))
	assert.Equal(t, "fallback", GetString(c, "EMPTYSTR", "fallback"))
	assert.Equal(t, "fallback", GetString(nil, "PORT", "fallback"))
	assert.Equal(t, 9090, GetInt(c, "PORT", 1))
	assert.Equal(t, 1, GetInt(c, "BAD_INT", 1))
	assert.False(t, GetBool(c, "FLAG", true))
	assert.True(t, GetBool(c, "MISSING", true))
	assert.Equal(t, 250*time.Millisecond, GetDuration(c, "DELAY", time.Second))
	assert.Equal(t, 3*time.Second, GetDuration(c, "SECONDS", time.Second))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, GetList(c, "ORIGINS"))
	assert.Nil(t, GetList(c, "MISSING"))
}

func TestLoadDefaults(t *testing.T) {
	app := Load(map[string]string{})

	assert.Equal(t, "8080", app.Port)
	assert.Equal(t, "sqlite", app.Database.Type)
	assert.Equal(t, "local", app.Assets.Backend)
	assert.Equal(t, 2, app.Assets.UploadAttempts)
	assert.Equal(t, int64(10<<20), app.Assets.MaxImageBytes)
	assert.Equal(t, "Admin", app.Blog.DefaultAuthor)
	assert.True(t, app.Blog.SanitizeHTML)
	assert.Equal(t, 30*time.Second, app.ShutdownTimeout)
}

func TestLoadSupabaseDSN(t *testing.T) {
	app := Load(map[string]string{
		"DB_TYPE":              "supa",
		"SUPABASE_DB_HOST":     "db.example.supabase.co",
		"SUPABASE_DB_USER":     "postgres",
		"SUPABASE_DB_PASSWORD": "pw",
		"SUPABASE_DB_NAME":     "postgres",
	})

	assert.Equal(t, "host=db.example.supabase.co user=postgres password=pw dbname=postgres port=5432 sslmode=require", app.Database.DSN())
}

func TestValidate(t *testing.T) {
	app := Load(map[string]string{})
	err := app.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsConfigError(err))

	app.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, app.Validate())

	app.Assets.Backend = "s3"
	assert.Error(t, app.Validate())

	app.Assets.S3Bucket = "bucket"
	assert.NoError(t, app.Validate())

	app.Database.Type = "mongo"
	assert.Error(t, app.Validate())
}

type fakeParameterStore struct {
	pages [][]ssmtypes.Parameter
	calls int
}

func (f *fakeParameterStore) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	page := f.pages[f.calls]
	f.calls++

	out := &ssm.GetParametersByPathOutput{Parameters: page}
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestOverlaySSM(t *testing.T) {
	store := &fakeParameterStore{pages: [][]ssmtypes.Parameter{
		{
			{Name: aws.String("/portfolio/prod/BLOG_JWT_SECRET"), Value: aws.String("from-ssm")},
			{Name: aws.String("/portfolio/prod/PORT"), Value: aws.String("7000")},
		},
		{
			{Name: aws.String("/portfolio/prod/S3_BUCKET"), Value: aws.String("assets")},
		},
	}}
	c := map[string]string{"PORT": "8080"}

	set, err := OverlaySSM(context.Background(), c, store, "/portfolio/prod")
	require.NoError(t, err)

	assert.Equal(t, 2, set)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, "from-ssm", c["BLOG_JWT_SECRET"])
	assert.Equal(t, "assets", c["S3_BUCKET"])
	assert.Equal(t, "8080", c["PORT"])
}
