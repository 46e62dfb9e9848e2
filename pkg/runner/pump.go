package runner

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

type inputResult struct {
	text string
	err  error
}

// linePump reads lines in the background so Input can honour ctx.
// A blocked read on a terminal cannot be interrupted; the pump goroutine
// simply stays parked until the process exits.
type linePump struct {
	reader    *bufio.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

func newLinePump(r io.Reader) *linePump {
	return &linePump{reader: bufio.NewReader(r)}
}

func (p *linePump) start() {
	p.startOnce.Do(func() {
		p.inputChan = make(chan inputResult)
		go p.run()
	})
}

func (p *linePump) run() {
	for {
		text, err := p.reader.ReadString('\n')

		// A final line without a newline still counts.
		if text != "" {
			p.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(p.inputChan)
				return
			}
			p.inputChan <- inputResult{err: err}
			// Backoff for persistent read failures
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// next returns the next line with its line terminator removed.
func (p *linePump) next(ctx context.Context) (string, error) {
	p.start()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-p.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}
