package view

import (
	"bytes"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardcheck/internal/accounts"
	"cardcheck/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func findForm(t *testing.T, body []byte) *html.Node {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(body))
	require.NoError(t, err)

	var form *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" && form == nil {
			form = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, form, "expected a form element")
	return form
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func inputs(form *html.Node) map[string]*html.Node {
	found := map[string]*html.Node{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			if name, ok := attr(n, "name"); ok {
				found[name] = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	return found
}

func TestLoginFormTargetsLoginRoute(t *testing.T) {
	body, err := newRenderer(t).Execute(PageLogin, LoginPage{})
	require.NoError(t, err)

	form := findForm(t, body)
	action, _ := attr(form, "action")
	method, _ := attr(form, "method")
	assert.Equal(t, "/login", action)
	assert.True(t, strings.EqualFold(method, "post"))
}

func TestLoginFormFields(t *testing.T) {
	body, err := newRenderer(t).Execute(PageLogin, LoginPage{})
	require.NoError(t, err)

	fields := inputs(findForm(t, body))
	require.Contains(t, fields, "user_id")
	require.Contains(t, fields, "first_name")

	_, required := attr(fields["user_id"], "required")
	assert.True(t, required, "user_id must be required")
	_, required = attr(fields["first_name"], "required")
	assert.False(t, required, "first_name must be optional")

	typ, _ := attr(fields["user_id"], "type")
	assert.Equal(t, "text", typ)
	assert.Contains(t, string(body), `type="submit"`)
}

func TestLoginUsesLayoutClasses(t *testing.T) {
	body, err := newRenderer(t).Execute(PageLogin, LoginPage{})
	require.NoError(t, err)

	out := string(body)
	for _, class := range []string{
		"hero-section", "card-header", "card-title", "card-body",
		"form-group", "form-label", "form-input", "btn btn-primary",
	} {
		assert.Contains(t, out, class)
	}
	assert.Contains(t, out, "<title>Login - CardCheck Pro</title>")
	assert.Contains(t, out, `href="/static/css/app.css"`)
}

func TestLoginRenderIsDeterministic(t *testing.T) {
	r := newRenderer(t)
	first, err := r.Execute(PageLogin, LoginPage{})
	require.NoError(t, err)
	second, err := r.Execute(PageLogin, LoginPage{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := newRenderer(t).Execute(PageLogin, LoginPage{})
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestLoginErrorIsEscaped(t *testing.T) {
	body, err := newRenderer(t).Execute(PageLogin, LoginPage{Error: "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<script>x</script>")
	assert.Contains(t, string(body), "&lt;script&gt;")
}

func TestDashboardShowsUser(t *testing.T) {
	body, err := newRenderer(t).Execute(PageDashboard, DashboardPage{
		User:      types.NewUser("u1", "Jane"),
		IsPremium: true,
	})
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, "Welcome, Jane")
	assert.Contains(t, out, "<td>u1</td>")
	assert.Contains(t, out, `href="/logout"`)
}

func TestRedeemMessages(t *testing.T) {
	r := newRenderer(t)

	body, err := r.Execute(PageRedeem, RedeemPage{})
	require.NoError(t, err)
	fields := inputs(findForm(t, body))
	require.Contains(t, fields, "key")
	assert.NotContains(t, string(body), "alert")

	body, err = r.Execute(PageRedeem, RedeemPage{Success: "Key redeemed successfully! Premium active for 7 days."})
	require.NoError(t, err)
	assert.Contains(t, string(body), `<div class="alert alert-success">Key redeemed successfully! Premium active for 7 days.</div>`)
}

func TestAdminOverview(t *testing.T) {
	expiry := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	body, err := newRenderer(t).Execute(PageAdmin, AdminPage{Stats: accounts.Stats{
		FreeUsers:    3,
		PremiumUsers: 2,
		Admins:       1,
		RecentPremium: []accounts.PremiumUser{
			{UserID: "p1", FirstName: "Jane", Expiry: expiry},
			{UserID: "p2"},
		},
	}})
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, `<td id="free-users">3</td>`)
	assert.Contains(t, out, `<td id="premium-users">2</td>`)
	assert.Contains(t, out, `<td id="admins">1</td>`)
	assert.Contains(t, out, "<td>p1</td><td>Jane</td><td>2030-05-06 07:08:09</td>")
	assert.Contains(t, out, "<td>p2</td><td></td><td>N/A</td>")

	body, err = newRenderer(t).Execute(PageAdmin, AdminPage{Error: "Error loading admin data"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Error loading admin data")
	assert.NotContains(t, string(body), "free-users")
}

func TestExecuteUnknownPage(t *testing.T) {
	_, err := newRenderer(t).Execute("check_mass.html", nil)
	assert.Error(t, err)
}

func TestRenderFallsBackTo500(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	// A nil User makes the dashboard template fail on .User.FirstName.
	err := r.Render(rec, http.StatusOK, PageDashboard, DashboardPage{})
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestRenderWritesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, newRenderer(t).Render(rec, http.StatusNotFound, PageNotFound, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestStaticContainsStylesheet(t *testing.T) {
	_, err := fs.Stat(Static(), "static/css/app.css")
	assert.NoError(t, err)
}
