package library

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"CasePublisher/internal/domain"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a sortable identifier prefixed by the resource kind, e.g. img_01HZX...
func NewID(kind domain.ResourceKind, at time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(at), entropy)
	entropyMu.Unlock()
	return Prefix(kind) + strings.ToLower(id.String())
}

// Prefix is the id prefix used for entries of kind.
func Prefix(kind domain.ResourceKind) string {
	switch kind {
	case domain.KindImage:
		return "img_"
	case domain.KindVideo:
		return "vid_"
	case domain.KindDocument:
		return "doc_"
	default:
		return "res_"
	}
}
