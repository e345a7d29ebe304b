package compare

import (
	"github.com/blkbis/idxqc/tableio"
	"github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

// CompareFiles loads two files and compares their contents.
func CompareFiles(leftPath, rightPath string, keyColumns []tree.Name, opts ...Opt) (*Result, error) {
	o := makeOpts(opts)
	left, err := tableio.LoadFile(leftPath, o.loadOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", leftPath)
	}
	right, err := tableio.LoadFile(rightPath, o.loadOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", rightPath)
	}
	return Compare(left, right, keyColumns, opts...)
}
