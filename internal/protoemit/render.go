package protoemit

import (
	"os"
	"path"

	"github.com/jhump/protoreflect/v2/protoprint"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Render writes the file descriptor to outDir as .proto source.
func Render(fd protoreflect.FileDescriptor, outDir string) error {
	pp := protoprint.Printer{}

	fp := path.Join(outDir, fd.Path())
	if err := os.MkdirAll(path.Dir(fp), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return pp.PrintProtoFile(fd, f)
}
