// Command blockctl drives an arena from the command line: growing
// blocks, reserving and releasing pages, and reporting the resulting
// bitmap and metadata state. It exists to exercise the block and arena
// packages against real mmap'd memory outside of a test binary.
package main

func main() {
	execute()
}
