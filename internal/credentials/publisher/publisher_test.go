package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
)

type recordingPublisher struct {
	formats   []models.CredentialFormat
	published []string
	err       error
}

func (p *recordingPublisher) CanHandle(f models.CredentialFormat) bool {
	for _, ok := range p.formats {
		if ok == f {
			return true
		}
	}
	return false
}

func (p *recordingPublisher) Publish(_ context.Context, r *models.VerifiableCredentialResource) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, r.ID)
	return "mem://" + r.ID, nil
}

func (p *recordingPublisher) Unpublish(context.Context, *models.VerifiableCredentialResource) error {
	return p.err
}

func resource(id string, format models.CredentialFormat) *models.VerifiableCredentialResource {
	return &models.VerifiableCredentialResource{
		ID:         id,
		Credential: models.VerifiableCredentialContainer{RawVC: "a.b.c", Format: format},
	}
}

func TestRegistry_DispatchesByFormat(t *testing.T) {
	ctx := context.Background()
	jwt := &recordingPublisher{formats: []models.CredentialFormat{models.FormatVC1JWT}}
	ld := &recordingPublisher{formats: []models.CredentialFormat{models.FormatVC1LD}}
	registry := NewRegistry(jwt)
	registry.Register(ld)

	url, err := registry.Publish(ctx, resource("sl-1", models.FormatVC1LD))
	require.NoError(t, err)
	assert.Equal(t, "mem://sl-1", url)
	assert.Equal(t, []string{"sl-1"}, ld.published)
	assert.Empty(t, jwt.published)

	_, err = registry.Publish(ctx, resource("sl-2", models.FormatVC2SDJWT))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	jwt.err = errors.New("boom")
	assert.EqualError(t, registry.Unpublish(ctx, resource("sl-1", models.FormatVC1JWT)), "boom")
}

func TestLocalPublisher(t *testing.T) {
	p := NewLocal("https://issuer.example/")
	url, err := p.Publish(context.Background(), resource("sl-1", models.FormatVC1JWT))
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example/statuslist/sl-1", url)
	assert.True(t, p.CanHandle(models.FormatVC1LD))
	assert.NoError(t, p.Unpublish(context.Background(), resource("sl-1", models.FormatVC1JWT)))

	_, err = p.Publish(context.Background(), &models.VerifiableCredentialResource{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRedisPublisher_CanHandle(t *testing.T) {
	p := NewRedis(nil, "http://localhost", 0)
	assert.True(t, p.CanHandle(models.FormatVC1JWT))
	assert.True(t, p.CanHandle(models.FormatVC2JOSE))
	assert.False(t, p.CanHandle(models.FormatVC1LD))

	_, err := p.Publish(context.Background(), &models.VerifiableCredentialResource{ID: "x"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), "unsigned credentials are rejected before touching redis")
}
