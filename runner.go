package jupyterkit

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"
)

//go:embed scripts/runcell.py
var runCellScript string

// CellResult is the outcome of executing one code cell.
type CellResult struct {
	// Stdout is the text the cell printed.
	Stdout string

	// Stderr is the cell's stderr output (warnings and the like).
	Stderr string

	// Images holds base64-encoded PNGs of every matplotlib figure the cell
	// produced, in figure order.
	Images []string
}

// cellRequest is one framed request to the helper process.
type cellRequest struct {
	ID   int64  `msgpack:"id"`
	Op   string `msgpack:"op"`
	Code string `msgpack:"code"`
}

// cellResponse is one framed response from the helper process.
type cellResponse struct {
	ID     int64            `msgpack:"id"`
	OK     bool             `msgpack:"ok"`
	Stdout string           `msgpack:"stdout"`
	Stderr string           `msgpack:"stderr"`
	Images []string         `msgpack:"images"`
	Error  *PythonException `msgpack:"error"`
}

// CellRunner executes notebook code cells in a long-lived Python helper
// process. State persists between cells, like a kernel: variables defined by
// one ExecuteCell call are visible to the next.
//
// Requests travel over the helper's stdin/stdout pipes as length-prefixed
// MessagePack frames. A single reader goroutine owns the receive side and
// dispatches responses by request ID, so an abandoned call never leaves a
// competing reader on the transport. CellRunner is safe for concurrent use.
type CellRunner struct {
	cmd        *managedCmd
	transport  Transport
	serializer Serializer

	mu      sync.Mutex
	closed  bool
	nextID  int64
	pending map[int64]chan *cellResponse
	readErr error
}

// NewCellRunner starts a helper process in the given environment. The helper
// script is embedded in the binary and passed via -c; it needs the msgpack
// package, which Initialize installs. Figures render on the Agg backend so no
// display is required.
func NewCellRunner(env *PythonEnvironment) (*CellRunner, error) {
	if env == nil {
		return nil, fmt.Errorf("nil environment")
	}
	cmd, err := startManagedCmd(env.PythonPath, []string{"-u", "-c", runCellScript}, "", map[string]string{
		"PYTHONUNBUFFERED": "1",
		"MPLBACKEND":       "Agg",
	})
	if err != nil {
		return nil, fmt.Errorf("starting cell runner: %w", err)
	}
	r := newCellRunner(NewPipeTransport(cmd.Stdout, cmd.Stdin), MsgpackSerializer{})
	r.cmd = cmd
	return r, nil
}

// newCellRunner assembles a runner over an existing transport and starts its
// reader goroutine.
func newCellRunner(transport Transport, serializer Serializer) *CellRunner {
	r := &CellRunner{
		transport:  transport,
		serializer: serializer,
		pending:    map[int64]chan *cellResponse{},
	}
	go r.readLoop()
	return r
}

// readLoop is the only reader of the transport. Responses are matched to
// their waiting call by ID; responses for abandoned calls are dropped. A
// receive or decode failure is terminal and fails every outstanding call.
func (r *CellRunner) readLoop() {
	for {
		data, err := r.transport.Receive()
		if err != nil {
			r.failPending(fmt.Errorf("reading runner response: %w", err))
			return
		}
		var resp cellResponse
		if err := r.serializer.Unmarshal(data, &resp); err != nil {
			r.failPending(fmt.Errorf("decoding runner response: %w", err))
			return
		}
		r.mu.Lock()
		if ch, ok := r.pending[resp.ID]; ok {
			delete(r.pending, resp.ID)
			ch <- &resp
		}
		r.mu.Unlock()
	}
}

func (r *CellRunner) failPending(err error) {
	r.mu.Lock()
	r.readErr = err
	for id, ch := range r.pending {
		delete(r.pending, id)
		close(ch)
	}
	r.mu.Unlock()
}

// ExecuteCell runs the cell source in the helper process and returns its
// output. A Python exception raised by the cell comes back as a
// *PythonException error; transport failures come back as plain errors.
//
// The context bounds the wait. On context expiry the helper is left running a
// cell whose result will be discarded; callers that need a hard stop should
// Close the runner.
func (r *CellRunner) ExecuteCell(ctx context.Context, code string) (*CellResult, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("cell runner is closed")
	}
	if r.readErr != nil {
		err := r.readErr
		r.mu.Unlock()
		return nil, err
	}

	r.nextID++
	req := cellRequest{ID: r.nextID, Op: "exec", Code: code}
	ch := make(chan *cellResponse, 1)
	r.pending[req.ID] = ch

	frame, err := r.serializer.Marshal(&req)
	if err == nil {
		err = r.transport.Send(frame)
	}
	if err != nil {
		delete(r.pending, req.ID)
		r.mu.Unlock()
		return nil, fmt.Errorf("sending cell to runner: %w", err)
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.pending, req.ID)
		r.mu.Unlock()
		return nil, ctx.Err()
	case resp := <-ch:
		if resp == nil {
			// Channel closed by failPending.
			r.mu.Lock()
			err := r.readErr
			r.mu.Unlock()
			return nil, err
		}
		if !resp.OK {
			if resp.Error != nil {
				return nil, resp.Error
			}
			return nil, fmt.Errorf("cell execution failed")
		}
		return &CellResult{Stdout: resp.Stdout, Stderr: resp.Stderr, Images: resp.Images}, nil
	}
}

// Close asks the helper to exit and terminates it if it lingers.
// Safe to call more than once.
func (r *CellRunner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if frame, err := r.serializer.Marshal(&cellRequest{Op: "shutdown"}); err == nil {
		r.transport.Send(frame)
	}

	if r.cmd != nil {
		done := make(chan error, 1)
		go func() { done <- r.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			r.cmd.Signal(killSignal)
			<-done
		}
	}
	return r.transport.Close()
}
