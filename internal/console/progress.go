package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// DownloadProgress renders archive download progress. On a terminal it runs a
// small bubbletea program with a progress bar; otherwise it prints one line
// when a download starts and one when it ends.
type DownloadProgress struct {
	out         io.Writer
	interactive bool

	name    string
	total   int64
	written int64
	program *tea.Program
	done    chan struct{}
}

// NewDownloadProgress returns a progress reporter writing to out.
func NewDownloadProgress(out io.Writer) *DownloadProgress {
	return &DownloadProgress{out: out, interactive: Interactive(out)}
}

// Start begins tracking a download of total bytes (-1 when unknown).
func (d *DownloadProgress) Start(name string, total int64) {
	d.name, d.total, d.written = name, total, 0
	if !d.interactive {
		size := "unknown size"
		if total > 0 {
			size = humanize.Bytes(uint64(total))
		}
		fmt.Fprintf(d.out, "downloading %s (%s)\n", name, size)
		return
	}
	model := progressModel{name: name, total: total, bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
	d.program = tea.NewProgram(model, tea.WithOutput(d.out), tea.WithInput(nil))
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		_, _ = d.program.Run()
	}()
}

// Advance records the number of bytes written so far.
func (d *DownloadProgress) Advance(written int64) {
	d.written = written
	if d.program != nil {
		d.program.Send(advanceMsg(written))
	}
}

// Finish stops tracking. err is the download outcome.
func (d *DownloadProgress) Finish(err error) {
	if d.program != nil {
		d.program.Send(finishMsg{err: err})
		<-d.done
		d.program = nil
		return
	}
	if err != nil {
		fmt.Fprintf(d.out, "download of %s failed after %s: %v\n", d.name, humanize.Bytes(uint64(d.written)), err)
		return
	}
	fmt.Fprintf(d.out, "downloaded %s (%s)\n", d.name, humanize.Bytes(uint64(d.written)))
}

type advanceMsg int64

type finishMsg struct{ err error }

type progressModel struct {
	name    string
	total   int64
	written int64
	bar     progress.Model
	err     error
	done    bool
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceMsg:
		m.written = int64(msg)
	case finishMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("%s: download failed: %v\n", m.name, m.err)
		}
		return fmt.Sprintf("%s: downloaded %s\n", m.name, humanize.Bytes(uint64(m.written)))
	}
	if m.total <= 0 {
		return fmt.Sprintf("%s: %s", m.name, humanize.Bytes(uint64(m.written)))
	}
	return fmt.Sprintf("%s %s %s/%s", m.name, m.bar.ViewAs(m.percent()), humanize.Bytes(uint64(m.written)), humanize.Bytes(uint64(m.total)))
}

func (m progressModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.written) / float64(m.total)
	if p > 1 {
		return 1
	}
	return p
}
