package domain

// MenuEntry is one navigation destination. Entries are static configuration;
// nothing mutates them at runtime.
type MenuEntry struct {
	Path       string
	Label      string
	Capability Capability
	AdminOnly  bool
}
