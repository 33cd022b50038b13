package loop

import "sync"

// MenuController keeps at most one Menu open. A single controller is shared
// by reference between every menu that must be mutually exclusive.
type MenuController struct {
	mu      sync.Mutex
	current *Menu
}

func NewMenuController() *MenuController {
	return &MenuController{}
}

// Open makes m the open menu. A different menu that was open is closed
// first and its close callback runs.
func (c *MenuController) Open(m *Menu) {
	if m == nil {
		return
	}
	c.mu.Lock()
	prev := c.current
	c.current = m
	c.mu.Unlock()

	if prev != nil && prev != m {
		prev.closed()
	}
}

// Close clears m if it is the open menu. It is a no-op otherwise.
func (c *MenuController) Close(m *Menu) {
	if m == nil {
		return
	}
	c.mu.Lock()
	wasOpen := c.current == m
	if wasOpen {
		c.current = nil
	}
	c.mu.Unlock()

	if wasOpen {
		m.closed()
	}
}

// CloseAll closes whichever menu is open.
func (c *MenuController) CloseAll() {
	c.Close(c.Current())
}

// Current returns the open menu, or nil.
func (c *MenuController) Current() *Menu {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *MenuController) IsOpen(m *Menu) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return m != nil && c.current == m
}

// Menu is one dropdown. Its open state lives only in the controller.
type Menu struct {
	name       string
	controller *MenuController
	onClose    func()
}

// NewMenu registers a menu with controller. onClose, if set, runs every time
// the menu goes from open to closed.
func NewMenu(name string, controller *MenuController, onClose func()) *Menu {
	return &Menu{name: name, controller: controller, onClose: onClose}
}

func (m *Menu) Name() string { return m.name }

func (m *Menu) Show() { m.controller.Open(m) }

func (m *Menu) Hide() { m.controller.Close(m) }

func (m *Menu) Toggle() {
	if m.IsOpen() {
		m.Hide()
		return
	}
	m.Show()
}

func (m *Menu) IsOpen() bool { return m.controller.IsOpen(m) }

// PointerLeft closes the menu after the pointer leaves its bounds.
func (m *Menu) PointerLeft() { m.controller.Close(m) }

// FocusLost closes the menu after keyboard or window focus moves away.
func (m *Menu) FocusLost() { m.controller.Close(m) }

func (m *Menu) closed() {
	if m.onClose != nil {
		m.onClose()
	}
}
