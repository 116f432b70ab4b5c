// Package view holds the page elements the controller reads and updates.
// Elements are plain state so handlers can be driven and inspected without
// a real terminal or DOM.
package view

// Element is anything that can be shown, hidden or carry a message.
type Element struct {
	Visible bool
	Text    string
	Error   bool
}

func (e *Element) Show() { e.Visible = true }
func (e *Element) Hide() { e.Visible = false }
func (e *Element) Clear() { e.Text, e.Error = "", false }
func (e *Element) Say(msg string, isError bool) {
	e.Text, e.Error = msg, isError
	e.Visible = msg != ""
}

type Nav struct {
	Login     Element
	Register  Element
	Dashboard Element
	Logout    Element
	UserInfo  Element
}

// SetLoggedIn toggles the links the way the page header does.
func (n *Nav) SetLoggedIn(loggedIn bool, email string) {
	n.Login.Visible = !loggedIn
	n.Register.Visible = !loggedIn
	n.Dashboard.Visible = loggedIn
	n.Logout.Visible = loggedIn
	if loggedIn && email != "" {
		n.UserInfo.Say("Logged in: "+email, false)
		return
	}
	n.UserInfo.Clear()
	n.UserInfo.Hide()
}

// LoggedIn reports the nav state as last set.
func (n *Nav) LoggedIn() bool {
	return n.Logout.Visible
}

type LoginForm struct {
	Email    string
	Password string
	Error    Element
}

type RegisterForm struct {
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
	Message         Element
}

type ExpenseForm struct {
	Description string
	Amount      string
	Category    string
	Date        string
	Message     Element
}

// Reset clears the inputs, keeping the message.
func (f *ExpenseForm) Reset() {
	f.Description, f.Amount, f.Category, f.Date = "", "", "", ""
}

type ExpenseList struct {
	Items       []string
	Placeholder Element
}

type Canvas struct {
	ID       string
	Visible  bool
	Path     string
	Tooltips []string
}

// Bindings is every element of every page. Build it once and pass it to
// the handlers.
type Bindings struct {
	Nav          Nav
	LoginForm    LoginForm
	RegisterForm RegisterForm
	ExpenseForm  ExpenseForm
	ExpenseList  ExpenseList
	Notice       Element
	Category     Canvas
	Monthly      Canvas
}

func NewBindings(categoryCanvas, monthlyCanvas string) *Bindings {
	return &Bindings{
		Category: Canvas{ID: categoryCanvas},
		Monthly:  Canvas{ID: monthlyCanvas},
	}
}

// Reset returns every element to its initial state, as navigating to a new
// page does. Canvas ids survive.
func (b *Bindings) Reset() {
	*b = *NewBindings(b.Category.ID, b.Monthly.ID)
}

// HideCanvases hides both charts.
func (b *Bindings) HideCanvases() {
	b.Category.Visible, b.Category.Path, b.Category.Tooltips = false, "", nil
	b.Monthly.Visible, b.Monthly.Path, b.Monthly.Tooltips = false, "", nil
}
