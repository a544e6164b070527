// Package openbanking talks to the Open Banking Brasil products-services upstream and
// reshapes its responses into the proxy envelope.
package openbanking

import "net/http"

// APIPrefix is the proxy route prefix every resource is mounted under.
const APIPrefix = "/api/v1"

// Resource describes one proxied collection.
type Resource struct {
	// Name is the public route segment, e.g. "personal-accounts".
	Name string
	// UpstreamPath is appended to the upstream base url.
	UpstreamPath string
	Method       string
	Description  string
}

var resources = []Resource{
	newResource("personal-accounts", "personal accounts"),
	newResource("business-accounts", "business accounts"),
	newResource("personal-loans", "personal loans"),
	newResource("business-loans", "business loans"),
	newResource("personal-credit-cards", "personal credit cards"),
	newResource("business-credit-cards", "business credit cards"),
	newResource("personal-financings", "personal financings"),
	newResource("business-financings", "business financings"),
	newResource("personal-invoice-financings", "personal invoice financings"),
	newResource("business-invoice-financings", "business invoice financings"),
	newResource("personal-unarranged-account-overdraft", "personal unarranged account overdraft"),
	newResource("business-unarranged-account-overdraft", "business unarranged account overdraft"),
}

func newResource(name, label string) Resource {
	return Resource{
		Name:         name,
		UpstreamPath: "/" + name,
		Method:       http.MethodGet,
		Description:  "Get " + label + " data",
	}
}

// RoutePath is the proxy route serving the resource.
func (r Resource) RoutePath() string {
	return APIPrefix + "/" + r.Name
}

// Resources returns the proxied collections in registration order.
// The returned slice is a copy.
func Resources() []Resource {
	out := make([]Resource, len(resources))
	copy(out, resources)
	return out
}

// Lookup finds a resource by its route name.
func Lookup(name string) (Resource, bool) {
	for _, r := range resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
