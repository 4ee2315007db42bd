package linker

// NewWithLink creates a Linker whose hardlink call is replaced by link.
func NewWithLink(link func(oldname, newname string) error) *Linker {
	return &Linker{link: link}
}
