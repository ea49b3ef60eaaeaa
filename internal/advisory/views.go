package advisory

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jon4hz/codevault/internal/catalog"
)

type openView struct {
	owner uint
	view  *View
}

// Views keeps opened detail views alive between the page render and the
// advisory requests the page makes afterwards. A view expires ttl after its last use.
type Views struct {
	advisor *Advisor
	views   *gocache.Cache
}

// NewViews creates an in-memory view registry for advisor.
func NewViews(advisor *Advisor, ttl time.Duration) *Views {
	return &Views{
		advisor: advisor,
		views:   gocache.New(ttl, 2*ttl),
	}
}

// Open starts a new view of p for owner and returns its ID.
func (v *Views) Open(owner uint, p catalog.Project, command string) (string, *View) {
	id := uuid.NewString()
	view := v.advisor.NewView(p, command)
	v.views.SetDefault(id, openView{owner: owner, view: view})
	return id, view
}

// Get returns the view with id if it belongs to owner and has not expired.
func (v *Views) Get(owner uint, id string) (*View, bool) {
	item, ok := v.views.Get(id)
	if !ok {
		return nil, false
	}
	entry, ok := item.(openView)
	if !ok || entry.owner != owner {
		return nil, false
	}
	v.views.SetDefault(id, entry)
	return entry.view, true
}

// Len returns the number of live views.
func (v *Views) Len() int {
	return v.views.ItemCount()
}
