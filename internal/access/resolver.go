// Package access implements the authorization decision for panel resources.
// The resolver is a pure function over the canonical identity record; it
// never consults session state or the client token.
package access

import "github.com/opspanel/panelapi/internal/identity"

// Kind classifies a requested resource.
type Kind string

const (
	// KindPage is a panel page (dashboard, files, ports, ...).
	KindPage Kind = "page"
	// KindSettings is a module inside the settings area.
	KindSettings Kind = "settings"
	// KindProject is a project-scoped resource; access requires the
	// projects page permission as a prerequisite.
	KindProject Kind = "project"
)

// Resource is a requested resource: a kind plus its name (page name,
// settings module, or project name).
type Resource struct {
	Kind Kind
	Name string
}

// Page names a panel page resource.
func Page(name string) Resource { return Resource{Kind: KindPage, Name: name} }

// Settings names a settings-module resource.
func Settings(module string) Resource { return Resource{Kind: KindSettings, Name: module} }

// Project names a project-scoped resource.
func Project(name string) Resource { return Resource{Kind: KindProject, Name: name} }

// ProjectsPage is the assigned-page permission that gates every
// project-scoped resource for custom identities.
const ProjectsPage = "projects_page"

// adminPages is the fixed page subset the admin role may access.
var adminPages = map[string]bool{
	"dashboard": true,
	"projects":  true,
	"files":     true,
	"ports":     true,
	"roles":     true,
}

// CanAccess reports whether the identity may access the resource. Inactive
// identities are denied regardless of role.
func CanAccess(ident *identity.Identity, res Resource) bool {
	if ident == nil || !ident.Active() {
		return false
	}

	switch ident.Role {
	case identity.RoleOwner:
		return true

	case identity.RoleAdministrator:
		// Owner-equivalent for pages and projects, but settings modules are
		// still gated by the administrator's own allow-list.
		if res.Kind == KindSettings {
			return ident.HasSettingsModule(res.Name)
		}
		return true

	case identity.RoleAdmin:
		switch res.Kind {
		case KindPage:
			return adminPages[res.Name]
		case KindSettings:
			return ident.HasSettingsModule(res.Name)
		case KindProject:
			return true
		}
		return false

	case identity.RoleCustom:
		switch res.Kind {
		case KindPage:
			return ident.HasPage(res.Name)
		case KindSettings:
			return ident.HasSettingsModule(res.Name)
		case KindProject:
			// A permission gated by another permission: project access first
			// requires the projects page itself.
			if !ident.HasPage(ProjectsPage) {
				return false
			}
			if res.Name == "" {
				return true
			}
			for _, p := range ident.Projects {
				if p == res.Name {
					return true
				}
			}
			return false
		}
		return false
	}

	// Outside the closed role set: deny.
	return false
}
