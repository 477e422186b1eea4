package main

import (
	"fmt"
	"strings"

	"github.com/CatGallery/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// autoLoadThreshold is how close to the end of the list the last visible row
// must be before the next page is requested.
const autoLoadThreshold = 3

// chromeLines is the space taken by the title, status and help rows.
const chromeLines = 4

type gallery interface {
	Dispatch(domain.Intent)
	Observe() (<-chan domain.GalleryState, func())
}

type stateMsg domain.GalleryState

type sessionClosedMsg struct{}

type model struct {
	gallery gallery
	states  <-chan domain.GalleryState
	stop    func()

	state    domain.GalleryState
	cursor   int
	offset   int
	inDetail bool
	spinner  spinner.Model

	width, height int
}

func newModel(g gallery) model {
	states, stop := g.Observe()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle
	return model{
		gallery: g,
		states:  states,
		stop:    stop,
		state:   domain.NewGalleryState(),
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	g := m.gallery
	return tea.Batch(
		func() tea.Msg {
			g.Dispatch(domain.LoadImages)
			return nil
		},
		waitForState(m.states),
		m.spinner.Tick,
	)
}

func waitForState(states <-chan domain.GalleryState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return sessionClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollToCursor()
		m.maybeLoadMore()
		return m, nil

	case stateMsg:
		m.state = domain.GalleryState(msg)
		if m.cursor >= len(m.state.Images) {
			m.cursor = max(len(m.state.Images)-1, 0)
			m.inDetail = m.inDetail && len(m.state.Images) > 0
		}
		m.scrollToCursor()
		// Errors are retried by the user, never automatically.
		if !m.state.HasError() {
			m.maybeLoadMore()
		}
		return m, waitForState(m.states)

	case sessionClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.inDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.state.Images)
	switch {
	case key.Matches(msg, listKeys.Quit):
		m.stop()
		return m, tea.Quit
	case key.Matches(msg, listKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, listKeys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, listKeys.Top):
		m.cursor = 0
	case key.Matches(msg, listKeys.Bottom):
		m.cursor = max(n-1, 0)
	case key.Matches(msg, listKeys.Open):
		if n > 0 {
			m.inDetail = true
		}
		return m, nil
	case key.Matches(msg, listKeys.Refresh):
		m.cursor, m.offset = 0, 0
		m.gallery.Dispatch(domain.RefreshImages)
		return m, nil
	case key.Matches(msg, listKeys.LoadMore):
		m.gallery.Dispatch(domain.LoadMoreImages)
		return m, nil
	default:
		return m, nil
	}

	m.scrollToCursor()
	m.maybeLoadMore()
	return m, nil
}

func (m model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, detailKeys.Quit):
		m.stop()
		return m, tea.Quit
	case key.Matches(msg, detailKeys.Back):
		m.inDetail = false
	}
	return m, nil
}

// maybeLoadMore requests the next page once the last visible row is within
// autoLoadThreshold of the end. The session ignores it while busy.
func (m *model) maybeLoadMore() {
	n := len(m.state.Images)
	if n == 0 || m.state.Busy() || !m.state.CanLoadMore {
		return
	}
	if m.lastVisible() >= n-autoLoadThreshold {
		m.gallery.Dispatch(domain.LoadMoreImages)
	}
}

func (m model) listHeight() int {
	if m.height == 0 {
		return 10
	}
	return max(m.height-chromeLines, 1)
}

func (m model) lastVisible() int {
	return min(m.offset+m.listHeight(), len(m.state.Images)) - 1
}

func (m *model) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m model) View() string {
	if m.inDetail && m.cursor < len(m.state.Images) {
		return m.renderDetail(m.state.Images[m.cursor])
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Cat Gallery  %d images", len(m.state.Images))))
	b.WriteString("\n")

	switch {
	case m.state.IsLoading && len(m.state.Images) == 0:
		b.WriteString(m.spinner.View() + loadingStyle.Render(" Loading cats..."))
		b.WriteString("\n")
	case len(m.state.Images) == 0 && !m.state.HasError():
		b.WriteString(emptyStyle.Render("No cats yet. Press r to load."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(renderHelp([]key.Binding{
		listKeys.Down, listKeys.Up, listKeys.Open, listKeys.LoadMore, listKeys.Refresh, listKeys.Quit,
	}))
	return b.String()
}

func (m model) renderList() string {
	var b strings.Builder
	end := min(m.offset+m.listHeight(), len(m.state.Images))
	for i := m.offset; i < end; i++ {
		img := m.state.Images[i]
		line := fmt.Sprintf("%s %s  %s", indexStyle.Render(fmt.Sprintf("%4d", i+1)), idStyle.Render(img.ID), urlStyle.Render(img.URL))
		if i == m.cursor {
			line = cursorStyle.Render(fmt.Sprintf("%4d %s  %s", i+1, img.ID, img.URL))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderStatus() string {
	switch {
	case m.state.IsLoadingMore:
		return m.spinner.View() + loadingStyle.Render(" Loading more...")
	case m.state.IsLoading && len(m.state.Images) > 0:
		return m.spinner.View() + loadingStyle.Render(" Refreshing...")
	case m.state.HasError():
		return errorStyle.Render(m.state.Error) + helpDescStyle.Render("  (r retry, n more)")
	}
	return ""
}

func (m model) renderDetail(img domain.CatImage) string {
	body := strings.Join([]string{
		detailLabelStyle.Render("ID  ") + detailValueStyle.Render(img.ID),
		detailLabelStyle.Render("URL ") + detailValueStyle.Render(img.URL),
	}, "\n")
	return titleStyle.Render("Cat") + "\n" +
		detailPanelStyle.Render(body) + "\n" +
		renderHelp([]key.Binding{detailKeys.Back, detailKeys.Quit})
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
