package loader

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/viant/mcp-protocol/oauth2/meta"
)

// MetadataSource loads the provider's authorization server metadata, the
// document a code client needs before it can build an authorization request.
// The loaded metadata acts as the readiness object.
type MetadataSource struct {
	Issuer   string
	client   *http.Client
	mux      sync.RWMutex
	metadata *meta.AuthorizationServerMetadata
}

// Inject fetches the metadata document
func (s *MetadataSource) Inject(ctx context.Context) error {
	if s.Issuer == "" {
		return fmt.Errorf("metadata source: missing issuer")
	}
	metadata, err := meta.FetchAuthorizationServerMetadata(ctx, s.Issuer, s.client)
	if err != nil {
		return fmt.Errorf("failed to fetch authorization server metadata %v: %w", s.Issuer, err)
	}
	if metadata.AuthorizationEndpoint == "" {
		return fmt.Errorf("authorization server %v has no authorization endpoint", s.Issuer)
	}
	s.Preload(metadata)
	return nil
}

// Preload publishes metadata obtained elsewhere; a loader probing Ready will
// then resolve without fetching.
func (s *MetadataSource) Preload(metadata *meta.AuthorizationServerMetadata) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.metadata = metadata
}

// Ready reports whether metadata is present; usable as a Probe.
func (s *MetadataSource) Ready() bool {
	return s.Metadata() != nil
}

// Metadata returns loaded metadata or nil
func (s *MetadataSource) Metadata() *meta.AuthorizationServerMetadata {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.metadata
}

// NewMetadataSource creates a metadata source; a nil client uses http.DefaultClient.
func NewMetadataSource(issuer string, client *http.Client) *MetadataSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &MetadataSource{Issuer: issuer, client: client}
}
