package shell

import (
	"bufio"
	"os"
)

// sourceFile is one entry of the LIFO input-source stack: a
// script file with its own stop-on-error policy and read position, or the
// interactive terminal when path is "".
type sourceFile struct {
	path        string
	stopOnError bool
	scanner     *bufio.Scanner
	f           *os.File
}

func (s *sourceFile) nextLine() (string, bool) {
	if s.scanner == nil {
		return "", false
	}
	if s.scanner.Scan() {
		return s.scanner.Text(), true
	}
	return "", false
}

func (s *sourceFile) close() {
	if s.f != nil {
		s.f.Close()
	}
}

// fileStack is the shell's current-file stack: the topmost entry drives
// the line editor.
type fileStack struct {
	stack []*sourceFile
}

func newFileStack() *fileStack { return &fileStack{} }

// push opens path (or, for "", registers the interactive terminal marker)
// and pushes it onto the stack.
func (fs *fileStack) push(path string, stopOnError bool) error {
	if path == "" {
		fs.stack = append(fs.stack, &sourceFile{stopOnError: stopOnError})
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	fs.stack = append(fs.stack, &sourceFile{
		path:        path,
		stopOnError: stopOnError,
		scanner:     bufio.NewScanner(f),
		f:           f,
	})
	return nil
}

func (fs *fileStack) top() *sourceFile {
	if len(fs.stack) == 0 {
		return nil
	}
	return fs.stack[len(fs.stack)-1]
}

func (fs *fileStack) pop() {
	if len(fs.stack) == 0 {
		return
	}
	top := fs.stack[len(fs.stack)-1]
	top.close()
	fs.stack = fs.stack[:len(fs.stack)-1]
}

func (fs *fileStack) empty() bool { return len(fs.stack) == 0 }
