package machine

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

// LabelFlyVersion is the image label carrying the deployed release version.
const LabelFlyVersion = "fly.version"

// ImageRef identifies the image a machine runs.
type ImageRef struct {
	Registry   string            `json:"registry"`
	Repository string            `json:"repository"`
	Tag        string            `json:"tag,omitempty"`
	Digest     string            `json:"digest,omitempty"`
	Labels     map[string]string `json:"labels"`
}

// ParseImageRef parses a fully qualified reference such as
// "registry.fly.io/my-app:deployment-01@sha256:...". Names without a registry
// are normalized to Docker Hub.
func ParseImageRef(s string) (ImageRef, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return ImageRef{}, fmt.Errorf("parse image reference %q: %w", s, err)
	}

	ref := ImageRef{
		Registry:   reference.Domain(named),
		Repository: reference.Path(named),
		Labels:     map[string]string{},
	}
	if tagged, ok := named.(reference.Tagged); ok {
		ref.Tag = tagged.Tag()
	}
	if digested, ok := named.(reference.Digested); ok {
		ref.Digest = digested.Digest().String()
	}
	return ref, nil
}

// FullRef returns registry/repository[:tag][@digest].
func (r ImageRef) FullRef() string {
	var b strings.Builder
	b.WriteString(r.Registry)
	b.WriteByte('/')
	b.WriteString(r.Repository)
	if r.Tag != "" {
		b.WriteByte(':')
		b.WriteString(r.Tag)
	}
	if r.Digest != "" {
		b.WriteByte('@')
		b.WriteString(r.Digest)
	}
	return b.String()
}

// StringWithVersion formats the ref as "repository:tag (version)", dropping
// the version suffix when the image has no fly.version label.
func (r ImageRef) StringWithVersion() string {
	s := r.Repository + ":" + r.Tag
	if v, ok := r.Labels[LabelFlyVersion]; ok {
		s += " (" + v + ")"
	}
	return s
}

// Matches reports whether s names this image. The name in s must be the
// repository, with or without the registry. A tag or digest present in s must
// equal the ref's; when s omits them, any tag or digest matches.
func (r ImageRef) Matches(s string) bool {
	parsed, err := reference.Parse(s)
	if err != nil {
		return false
	}
	named, ok := parsed.(reference.Named)
	if !ok {
		return false
	}
	if name := named.Name(); name != r.Repository && name != r.Registry+"/"+r.Repository {
		return false
	}
	if tagged, ok := parsed.(reference.Tagged); ok && tagged.Tag() != r.Tag {
		return false
	}
	if digested, ok := parsed.(reference.Digested); ok && digested.Digest().String() != r.Digest {
		return false
	}
	return true
}
