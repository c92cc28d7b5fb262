package collect

import (
	"context"
	"errors"
	"sync"
	"time"
)

// stubPage is the scripted content behind one URL in a stubSession.
type stubPage struct {
	heading string
	address string
	website string
	phone   string
	html    string
	body    string
	broken  bool // the heading never renders
}

// stubSession is a scripted Session. AnchorHrefs serves batches in order and
// sticks at empty; ScrollHeight serves heights in order and sticks at the
// last value.
type stubSession struct {
	mu        sync.Mutex
	pages     map[string]*stubPage
	batches   [][]string
	batchIdx  int
	heights   []int
	heightIdx int
	noFeed    bool
	navErrs   map[string]error
	current   string
	navigated []string
	closed    int
}

func newStubSession() *stubSession {
	return &stubSession{
		pages:   make(map[string]*stubPage),
		navErrs: make(map[string]error),
	}
}

func (s *stubSession) page() *stubPage {
	if p, ok := s.pages[s.current]; ok {
		return p
	}
	return &stubPage{}
}

func (s *stubSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
	if err := s.navErrs[url]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *stubSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch selector {
	case consentBtnSel:
		return errors.New("no consent dialog")
	case feedSelector:
		if s.noFeed {
			return errors.New("feed never rendered")
		}
		return nil
	case headingSel:
		if s.page().broken {
			return errors.New("heading never rendered")
		}
		return nil
	}
	return nil
}

func (s *stubSession) Click(context.Context, string) error { return nil }

func (s *stubSession) SendKeys(context.Context, string, string) error { return nil }

func (s *stubSession) Text(_ context.Context, selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.page()
	switch selector {
	case headingSel:
		return p.heading, nil
	case addressSel:
		return p.address, nil
	case phoneSel:
		return p.phone, nil
	}
	return "", nil
}

func (s *stubSession) Attr(_ context.Context, selector, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selector == authoritySel && name == "href" {
		return s.page().website, nil
	}
	return "", nil
}

func (s *stubSession) BodyText(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page().body, nil
}

func (s *stubSession) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page().html, nil
}

func (s *stubSession) AnchorHrefs(context.Context, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchIdx >= len(s.batches) {
		return nil, nil
	}
	batch := s.batches[s.batchIdx]
	s.batchIdx++
	return batch, nil
}

func (s *stubSession) ScrollToBottom(context.Context, string) error { return nil }

func (s *stubSession) ScrollHeight(context.Context, string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heights) == 0 {
		return 0, nil
	}
	h := s.heights[s.heightIdx]
	if s.heightIdx < len(s.heights)-1 {
		s.heightIdx++
	}
	return h, nil
}

func (s *stubSession) Location(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *stubSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// stubEngine hands out a fixed session, or fails.
type stubEngine struct {
	session *stubSession
	err     error
}

func (e *stubEngine) NewSession(context.Context) (Session, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.session, nil
}

// recordingEmitter captures events for assertions.
type recordingEmitter struct {
	mu       sync.Mutex
	logs     []string
	progress [][2]int
}

func (e *recordingEmitter) Log(_, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logs = append(e.logs, message)
}

func (e *recordingEmitter) Progress(found, target int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = append(e.progress, [2]int{found, target})
}

func (e *recordingEmitter) lastProgress() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.progress) == 0 {
		return -1, -1
	}
	last := e.progress[len(e.progress)-1]
	return last[0], last[1]
}
