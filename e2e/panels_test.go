//go:build e2e

package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveJob(t *testing.T, page playwright.Page, title, url string) {
	t.Helper()
	require.NoError(t, page.Locator("#jobs-panel input[name='title']").Fill(title))
	require.NoError(t, page.Locator("#jobs-panel input[name='url']").Fill(url))
	require.NoError(t, page.Locator("#jobs-panel button[type='submit']").Click())
}

func TestJobs_SaveNewestFirst(t *testing.T) {
	resetLists(t)
	page := newPage(t)
	navigateToDashboard(t, page)

	saveJob(t, page, "Job Alpha", "https://jobs.example.com/alpha")
	waitVisible(t, page.Locator("#jobs-panel .item-title", playwright.PageLocatorOptions{HasText: "Job Alpha"}))
	saveJob(t, page, "Job Bravo", "https://jobs.example.com/bravo")
	waitVisible(t, page.Locator("#jobs-panel .item-title", playwright.PageLocatorOptions{HasText: "Job Bravo"}))

	titles, err := page.Locator("#jobs-panel .item-title").AllTextContents()
	require.NoError(t, err)
	assert.Equal(t, []string{"Job Bravo", "Job Alpha"}, titles)
	assert.Equal(t, "2", textOf(t, page.Locator("#jobs-panel .count")))

	// form is reset after a successful save
	value, err := page.Locator("#jobs-panel input[name='url']").InputValue()
	require.NoError(t, err)
	assert.Empty(t, value)

	href, err := page.Locator("#jobs-panel .item-url").First().GetAttribute("href")
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.com/bravo", href)
	target, err := page.Locator("#jobs-panel .item-url").First().GetAttribute("target")
	require.NoError(t, err)
	assert.Equal(t, "_blank", target)
}

func TestJobs_MissingURL(t *testing.T) {
	resetLists(t)
	page := newPage(t)
	navigateToDashboard(t, page)

	saveJob(t, page, "No Link", "")
	errLoc := page.Locator("#jobs-panel .error")
	waitVisible(t, errLoc)
	assert.Equal(t, "Please enter a job posting URL", textOf(t, errLoc))
	assert.Equal(t, "0", textOf(t, page.Locator("#jobs-panel .count")))

	value, err := page.Locator("#jobs-panel input[name='title']").InputValue()
	require.NoError(t, err)
	assert.Equal(t, "No Link", value, "entered title is kept")
}

func TestJobs_EscapesMarkup(t *testing.T) {
	resetLists(t)
	page := newPage(t)
	navigateToDashboard(t, page)

	saveJob(t, page, "<b>bold</b>", "https://jobs.example.com/markup")
	loc := page.Locator("#jobs-panel .item-title").First()
	waitVisible(t, loc)
	assert.Equal(t, "<b>bold</b>", textOf(t, loc))
	count, err := page.Locator("#jobs-panel .item-title b").Count()
	require.NoError(t, err)
	assert.Zero(t, count, "markup must be shown as text")
}

func TestRecruiters_SaveAndDefaults(t *testing.T) {
	resetLists(t)
	page := newPage(t)
	_, err := page.Goto(baseURL + "/?panel=recruiters")
	require.NoError(t, err)
	waitVisible(t, page.Locator("#recruiters-panel"))

	require.NoError(t, page.Locator("#recruiters-panel input[name='name']").Fill("Jane Doe"))
	require.NoError(t, page.Locator("#recruiters-panel input[name='url']").Fill("https://linkedin.com/in/jane"))
	require.NoError(t, page.Locator("#recruiters-panel button[type='submit']").Click())

	waitVisible(t, page.Locator("#recruiters-panel .item-title", playwright.PageLocatorOptions{HasText: "Jane Doe"}))
	assert.Equal(t, "Unknown Company", textOf(t, page.Locator("#recruiters-panel .item-company").First()))
	assert.Contains(t, textOf(t, page.Locator("#recruiters-panel .item-date").First()), "Added: ")
}

func TestRecruiters_DeleteAll(t *testing.T) {
	resetLists(t)
	page := newPage(t)
	_, err := page.Goto(baseURL + "/?panel=recruiters")
	require.NoError(t, err)

	for _, name := range []string{"Ann", "Bob", "Cid"} {
		require.NoError(t, page.Locator("#recruiters-panel input[name='name']").Fill(name))
		require.NoError(t, page.Locator("#recruiters-panel input[name='url']").Fill("https://in.example.com/"+name))
		require.NoError(t, page.Locator("#recruiters-panel button[type='submit']").Click())
		waitVisible(t, page.Locator("#recruiters-panel .item-title", playwright.PageLocatorOptions{HasText: name}))
	}
	assert.Equal(t, "3", textOf(t, page.Locator("#recruiters-panel .count")))

	var message string
	accept := false
	page.OnDialog(func(d playwright.Dialog) {
		message = d.Message()
		if accept {
			_ = d.Accept()
			return
		}
		_ = d.Dismiss()
	})

	t.Run("dismissed", func(t *testing.T) {
		require.NoError(t, page.Locator("#recruiters-panel button.danger").Click())
		assert.Equal(t, "Are you sure you want to delete all saved recruiters?", message)
		assert.Equal(t, "3", textOf(t, page.Locator("#recruiters-panel .count")))
	})

	t.Run("accepted", func(t *testing.T) {
		accept = true
		require.NoError(t, page.Locator("#recruiters-panel button.danger").Click())
		waitVisible(t, page.Locator("#recruiters-panel .empty"))
		assert.Equal(t, "0", textOf(t, page.Locator("#recruiters-panel .count")))
	})
}
