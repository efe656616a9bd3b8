package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/parser"
	"github.com/go-rtk/rtk/pkg/value"
)

// evalImport resolves, parses and evaluates the target file, caching the
// result by the path the Importer resolves to, so that importing the same
// file from multiple places within this Evaluator evaluates it exactly
// once. The cache belongs to the Evaluator and is not shared with other
// Evaluators; symlinks are not resolved here.
func (ev *Evaluator) evalImport(ctx *value.Context, e *ast.Import) (value.Value, error) {
	if ev.Importer == nil {
		return nil, kureerrors.ErrImportNotFound
	}
	canonical, err := ev.Importer.Resolve(ctx.File, e.Path)
	if err != nil {
		return nil, kureerrors.New(kureerrors.ErrImportNotFound, e.Path)
	}

	ev.mu.Lock()
	t, ok := ev.importCache[canonical]
	if !ok {
		t = value.NewThunk(func() (value.Value, error) {
			src, err := ev.Importer.Read(canonical)
			if err != nil {
				return nil, kureerrors.New(kureerrors.ErrImportNotFound, canonical)
			}
			root, perr := parser.Parse(canonical, src)
			if perr != nil {
				return nil, perr
			}
			return ev.Eval(value.Root().WithFile(canonical), root)
		})
		ev.importCache[canonical] = t
	}
	ev.mu.Unlock()

	return t.Force()
}

func (ev *Evaluator) evalImportstr(ctx *value.Context, e *ast.Importstr) (value.Value, error) {
	if ev.Importer == nil {
		return nil, kureerrors.ErrImportNotFound
	}
	canonical, err := ev.Importer.Resolve(ctx.File, e.Path)
	if err != nil {
		return nil, kureerrors.New(kureerrors.ErrImportNotFound, e.Path)
	}
	src, err := ev.Importer.Read(canonical)
	if err != nil {
		return nil, kureerrors.New(kureerrors.ErrImportNotFound, canonical)
	}
	return value.Intern(src), nil
}

func (ev *Evaluator) evalImportbin(ctx *value.Context, e *ast.Importbin) (value.Value, error) {
	if ev.Importer == nil {
		return nil, kureerrors.ErrImportNotFound
	}
	canonical, err := ev.Importer.Resolve(ctx.File, e.Path)
	if err != nil {
		return nil, kureerrors.New(kureerrors.ErrImportNotFound, e.Path)
	}
	data, err := ev.Importer.ReadBinary(canonical)
	if err != nil {
		return nil, kureerrors.New(kureerrors.ErrImportNotFound, canonical)
	}
	elems := make([]*value.Thunk, len(data))
	for i, b := range data {
		elems[i] = value.Ready(value.Number(float64(b)))
	}
	return &value.Array{Elements: elems}, nil
}
