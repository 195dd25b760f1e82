package ddc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/moffa90/go-ddcci/protocol"
)

// maxOffset is the last offset a fragment request can address.
const maxOffset = 0xFFFF

// accumulator collects the fragments of one chunked read.
type accumulator struct {
	what      string
	buf       []byte
	offset    int
	chunks    int
	maxLength int
	maxChunks int
}

func (a *accumulator) overflow(limit string) error {
	return &ReassemblyError{
		What:   a.what,
		Bytes:  len(a.buf),
		Chunks: a.chunks,
		Limit:  limit,
	}
}

// add appends one fragment and reports whether the read is complete.
func (a *accumulator) add(data []byte, final bool) (bool, error) {
	if len(a.buf)+len(data) > a.maxLength {
		return false, a.overflow(fmt.Sprintf("max length %d bytes", a.maxLength))
	}

	a.buf = append(a.buf, data...)
	a.chunks++
	a.offset += len(data)

	if final {
		return true, nil
	}
	if a.offset > maxOffset {
		return false, a.overflow("16-bit offset space")
	}
	if a.chunks >= a.maxChunks {
		return false, a.overflow(fmt.Sprintf("max %d chunks", a.maxChunks))
	}
	return false, nil
}

// fragment extracts the data of a chunked reply.
func fragment(resp protocol.Response) ([]byte, bool, error) {
	switch r := resp.(type) {
	case *protocol.CapabilitiesChunk:
		return r.Data, r.Final, nil
	case *protocol.TableReply:
		return r.Data, r.Final, nil
	default:
		return nil, false, &protocol.UnexpectedReplyError{
			Operation: "reassemble",
			Reason:    fmt.Sprintf("response type %T", resp),
		}
	}
}

// reassemble issues fragment requests at increasing offsets until a
// final fragment arrives. The context is checked between fragments.
func (e *Engine) reassemble(ctx context.Context, what, phase string, request func(offset uint16) protocol.Command) ([]byte, error) {
	acc := &accumulator{
		what:      what,
		buf:       make([]byte, 0, 2*protocol.MaxFragmentSize),
		maxLength: e.config.MaxCapabilitiesLength,
		maxChunks: e.config.MaxChunks,
	}
	start := e.config.Clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		resp, err := e.Exchange(ctx, request(uint16(acc.offset)))
		if err != nil {
			return nil, fmt.Errorf("read %s at offset 0x%04X: %w", what, acc.offset, err)
		}

		data, final, err := fragment(resp)
		if err != nil {
			return nil, err
		}

		done, err := acc.add(data, final)
		if err != nil {
			e.logError("reassembly aborted",
				"what", what,
				"bytes", len(acc.buf),
				"chunks", acc.chunks,
			)
			return nil, err
		}

		e.reportProgress(Progress{
			Phase:       phase,
			Chunks:      acc.chunks,
			Bytes:       len(acc.buf),
			Offset:      uint16(acc.offset & maxOffset),
			Done:        done,
			ElapsedTime: e.config.Clock.Now().Sub(start),
		})

		if done {
			break
		}
	}

	e.config.Metrics.recordReassembly(phase, len(acc.buf))
	e.logInfo("reassembly complete",
		"what", what,
		"bytes", len(acc.buf),
		"chunks", acc.chunks,
		"elapsed", e.config.Clock.Now().Sub(start).String(),
	)

	return acc.buf, nil
}

// Capabilities reads the raw capabilities string of the display.
// The result is returned as received, including any NUL terminator.
//
// Example:
//
//	raw, err := engine.Capabilities(ctx)
//	if err != nil {
//	    return err
//	}
//	c, err := caps.ParseBytes(raw)
func (e *Engine) Capabilities(ctx context.Context) ([]byte, error) {
	return e.reassemble(ctx, "capabilities", PhaseCapabilities, func(offset uint16) protocol.Command {
		return protocol.GetCapabilitiesChunk{Offset: offset}
	})
}

// CapabilitiesString reads the capabilities string and strips the NUL
// terminator some displays append.
func (e *Engine) CapabilitiesString(ctx context.Context) (string, error) {
	raw, err := e.Capabilities(ctx)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), nil
}

// ReadTable reads the complete contents of a table VCP feature.
func (e *Engine) ReadTable(ctx context.Context, code byte) ([]byte, error) {
	what := fmt.Sprintf("table 0x%02X", code)
	return e.reassemble(ctx, what, PhaseTable, func(offset uint16) protocol.Command {
		return protocol.TableRead{Code: code, Offset: offset}
	})
}
