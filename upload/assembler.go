package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/dmitrymomot/uploadgate/core/storage"
)

// BlockSize is the copy block size.
const BlockSize = 4096

// AppendParams describes one append to a partial file.
type AppendParams struct {
	Dir      string
	Filename string
	// Offset is the committed size of the partial file. Anything past it is
	// left over from an interrupted request and gets truncated.
	Offset int64
	// Finalize renames the partial file once the bytes are in.
	Finalize bool
	Source   Source
}

// AppendResult reports the state after a successful append.
type AppendResult struct {
	// Path is the final path when Finalized, the partial path otherwise.
	Path      string
	Size      int64
	Written   int64
	Finalized bool
}

// Assembler streams request bytes into partial files.
type Assembler struct {
	buffers sync.Pool
}

// NewAssembler creates an Assembler with pooled BlockSize buffers.
func NewAssembler() *Assembler {
	return &Assembler{
		buffers: sync.Pool{New: func() any {
			b := make([]byte, BlockSize)
			return &b
		}},
	}
}

// Append writes the source after p.Offset in <Dir>/<Filename>.part and,
// when p.Finalize is set, renames it to <Dir>/<Filename>.
func (a *Assembler) Append(ctx context.Context, p AppendParams) (AppendResult, error) {
	partPath := PartPath(p.Dir, p.Filename)

	out, err := os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE, storage.FilePerm)
	if err != nil {
		return AppendResult{}, newError(ErrStream, CodeOutputStream, MsgOutputStream, err)
	}
	defer out.Close()

	if err := out.Truncate(p.Offset); err != nil {
		return AppendResult{}, newError(ErrStream, CodeOutputStream, MsgOutputStream, err)
	}
	if _, err := out.Seek(p.Offset, io.SeekStart); err != nil {
		return AppendResult{}, newError(ErrStream, CodeOutputStream, MsgOutputStream, err)
	}

	in, err := p.Source.Open()
	if err != nil {
		var uerr *Error
		if errors.As(err, &uerr) {
			return AppendResult{}, err
		}
		return AppendResult{}, newError(ErrStream, CodeInputStream, MsgInputStream, err)
	}
	defer in.Close()

	written, err := a.copy(ctx, out, in)
	if err != nil {
		return AppendResult{}, err
	}
	if err := out.Close(); err != nil {
		return AppendResult{}, newError(ErrStream, CodeOutputStream, MsgOutputStream, err)
	}

	res := AppendResult{Path: partPath, Size: p.Offset + written, Written: written}
	if !p.Finalize {
		return res, nil
	}

	finalPath := FinalPath(p.Dir, p.Filename)
	if err := os.Rename(partPath, finalPath); err != nil {
		return AppendResult{}, newError(ErrStream, CodeOutputStream, MsgOutputStream, err)
	}
	res.Path = finalPath
	res.Finalized = true
	return res, nil
}

// copy moves src to dst in BlockSize blocks. Read failures are transport
// errors, write failures output stream errors.
func (a *Assembler) copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	bp := a.buffers.Get().(*[]byte)
	defer a.buffers.Put(bp)
	buf := *bp

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, newError(ErrTransport, CodeTransport, MsgTransport, err)
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr == nil && m < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, newError(ErrStream, CodeOutputStream, MsgOutputStream, werr)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, newError(ErrTransport, CodeTransport, MsgTransport, rerr)
		}
	}
}
