package view

import (
	"fmt"
	"io"
	"strings"
)

// Terminal prints the visible parts of a page.
type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render writes the header, then the elements that belong to route.
func (t *Terminal) Render(route string, b *Bindings) error {
	var sb strings.Builder

	links := make([]string, 0, 4)
	for _, l := range []struct {
		name string
		el   Element
	}{
		{"login", b.Nav.Login},
		{"register", b.Nav.Register},
		{"dashboard", b.Nav.Dashboard},
		{"logout", b.Nav.Logout},
	} {
		if l.el.Visible {
			links = append(links, l.name)
		}
	}
	fmt.Fprintf(&sb, "[%s] %s\n", route, strings.Join(links, " | "))
	if b.Nav.UserInfo.Visible {
		fmt.Fprintln(&sb, b.Nav.UserInfo.Text)
	}

	writeMessage(&sb, b.LoginForm.Error)
	writeMessage(&sb, b.RegisterForm.Message)
	writeMessage(&sb, b.ExpenseForm.Message)
	writeMessage(&sb, b.Notice)

	for _, item := range b.ExpenseList.Items {
		fmt.Fprintf(&sb, "  - %s\n", item)
	}
	if b.ExpenseList.Placeholder.Visible {
		fmt.Fprintln(&sb, b.ExpenseList.Placeholder.Text)
	}

	for _, c := range []Canvas{b.Category, b.Monthly} {
		if !c.Visible {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", c.ID, c.Path)
		for _, tip := range c.Tooltips {
			fmt.Fprintf(&sb, "    %s\n", tip)
		}
	}

	_, err := io.WriteString(t.w, sb.String())
	return err
}

func writeMessage(sb *strings.Builder, e Element) {
	if !e.Visible || e.Text == "" {
		return
	}
	if e.Error {
		fmt.Fprintf(sb, "error: %s\n", e.Text)
		return
	}
	fmt.Fprintln(sb, e.Text)
}
