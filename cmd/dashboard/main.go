// Command dashboard is a terminal UI over the articleforge HTTP API.
// It shows the document store at a glance, refreshes itself, and can
// trigger enhancement runs for the selected document.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

const pollInterval = 5 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginTop(1).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)
)

var statusColors = map[string]lipgloss.Style{
	"original":   lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	"processing": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
	"updated":    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
	"failed":     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
}

// documentRow is the subset of the API's document payload the dashboard
// renders.
type documentRow struct {
	ID            string `json:"id"`
	OriginalTitle string `json:"original_title"`
	Status        string `json:"status"`
	ProviderUsed  string `json:"provider_used"`
}

type statsSummary struct {
	Total           int            `json:"total"`
	ByStatus        map[string]int `json:"by_status"`
	AvgProcessingMS int64          `json:"avg_processing_ms"`
}

// Messages for the tea program
type refreshMsg struct {
	docs  []documentRow
	stats *statsSummary
	err   error
}

type processStartedMsg struct {
	id  string
	err error
}

type tickMsg time.Time

type model struct {
	baseURL  string
	docs     []documentRow
	stats    *statsSummary
	selected int
	err      error
	logs     []string
}

func initialModel(baseURL string) model {
	return model{baseURL: baseURL}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(refresh(m.baseURL), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refresh(baseURL string) tea.Cmd {
	return func() tea.Msg {
		docs, err := fetchDocuments(baseURL)
		if err != nil {
			return refreshMsg{err: err}
		}
		stats, err := fetchStats(baseURL)
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{docs: docs, stats: stats}
	}
}

func processDocument(baseURL, id string) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Post(baseURL+"/api/documents/"+id+"/process", "application/json", nil)
		if err != nil {
			return processStartedMsg{id: id, err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return processStartedMsg{id: id, err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
		}
		return processStartedMsg{id: id}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.docs)-1 {
				m.selected++
			}
		case "r":
			return m, refresh(m.baseURL)
		case "p":
			if m.selected < len(m.docs) {
				doc := m.docs[m.selected]
				m.addLog(fmt.Sprintf("Processing %s...", shortID(doc.ID)))
				return m, processDocument(m.baseURL, doc.ID)
			}
		}

	case tickMsg:
		return m, tea.Batch(refresh(m.baseURL), tick())

	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.docs = msg.docs
		m.stats = msg.stats
		if m.selected >= len(m.docs) && len(m.docs) > 0 {
			m.selected = len(m.docs) - 1
		}
		return m, nil

	case processStartedMsg:
		if msg.err != nil {
			m.addLog(fmt.Sprintf("Processing %s failed: %v", shortID(msg.id), msg.err))
		} else {
			m.addLog(fmt.Sprintf("Document %s enhanced", shortID(msg.id)))
		}
		return m, refresh(m.baseURL)
	}

	return m, nil
}

func (m *model) addLog(logMsg string) {
	m.logs = append(m.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), logMsg))
	if len(m.logs) > 5 {
		m.logs = m.logs[len(m.logs)-5:]
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📄 ArticleForge Dashboard"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("API unreachable: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render("Press 'r' to retry | 'q' to quit"))
		return b.String()
	}

	if m.stats != nil {
		line := fmt.Sprintf("Total: %d | Updated: %d | Failed: %d | Avg: %dms",
			m.stats.Total,
			m.stats.ByStatus["updated"],
			m.stats.ByStatus["failed"],
			m.stats.AvgProcessingMS)
		b.WriteString(boxStyle.Render(statusStyle.Render(line)))
		b.WriteString("\n\n")
	}

	if len(m.docs) == 0 {
		b.WriteString(infoStyle.Render("No documents yet. Ingest a feed to get started."))
		b.WriteString("\n")
	}
	for i, doc := range m.docs {
		style, ok := statusColors[doc.Status]
		if !ok {
			style = infoStyle
		}
		row := fmt.Sprintf("%-10s %-10s %s", shortID(doc.ID), doc.Status, truncate(doc.OriginalTitle, 60))
		if doc.ProviderUsed != "" {
			row += infoStyle.Render("  via " + doc.ProviderUsed)
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(style.Render(row))
		}
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		for _, logMsg := range m.logs {
			b.WriteString(infoStyle.Render("   " + logMsg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("↑/↓ select | 'p' process | 'r' refresh | 'q' quit"))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func fetchDocuments(baseURL string) ([]documentRow, error) {
	resp, err := http.Get(baseURL + "/api/documents?limit=15")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list documents: status %d", resp.StatusCode)
	}

	var payload struct {
		Data []documentRow `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func fetchStats(baseURL string) (*statsSummary, error) {
	resp, err := http.Get(baseURL + "/api/stats/summary")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats: status %d", resp.StatusCode)
	}

	var stats statsSummary
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	p := tea.NewProgram(initialModel(baseURL))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		os.Exit(1)
	}
}
