// Package publisher makes signed status-list credentials resolvable by
// verifiers, either straight from the credential store or through Redis.
package publisher

import (
	"context"
	"fmt"
	"strings"

	"vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
)

// PathPrefix is the route status lists are served under.
const PathPrefix = "/statuslist/"

// Publisher publishes one kind of status-list credential.
type Publisher interface {
	CanHandle(format models.CredentialFormat) bool
	Publish(ctx context.Context, resource *models.VerifiableCredentialResource) (string, error)
	Unpublish(ctx context.Context, resource *models.VerifiableCredentialResource) error
}

// Registry dispatches to the first publisher that can handle a credential's format.
type Registry struct {
	publishers []Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	return &Registry{publishers: publishers}
}

func (r *Registry) Register(p Publisher) {
	r.publishers = append(r.publishers, p)
}

func (r *Registry) Publish(ctx context.Context, resource *models.VerifiableCredentialResource) (string, error) {
	p, err := r.forFormat(resource.Credential.Format)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, resource)
}

func (r *Registry) Unpublish(ctx context.Context, resource *models.VerifiableCredentialResource) error {
	p, err := r.forFormat(resource.Credential.Format)
	if err != nil {
		return err
	}
	return p.Unpublish(ctx, resource)
}

func (r *Registry) forFormat(format models.CredentialFormat) (Publisher, error) {
	for _, p := range r.publishers {
		if p.CanHandle(format) {
			return p, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("no status list publisher for format '%s'", format))
}

// URLFor is the public URL of a status list served by this process.
func URLFor(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + PathPrefix + id
}

// LocalPublisher serves status lists directly from the credential store via
// Handler. Publishing only computes the URL.
type LocalPublisher struct {
	baseURL string
}

func NewLocal(baseURL string) *LocalPublisher {
	return &LocalPublisher{baseURL: baseURL}
}

func (p *LocalPublisher) CanHandle(models.CredentialFormat) bool { return true }

func (p *LocalPublisher) Publish(_ context.Context, resource *models.VerifiableCredentialResource) (string, error) {
	if resource == nil || resource.ID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "status list credential id is required")
	}
	return URLFor(p.baseURL, resource.ID), nil
}

// Unpublish is a no-op; Handler refuses lists not marked published.
func (p *LocalPublisher) Unpublish(context.Context, *models.VerifiableCredentialResource) error {
	return nil
}

var (
	_ Publisher = (*LocalPublisher)(nil)
	_ Publisher = (*RedisPublisher)(nil)
)
