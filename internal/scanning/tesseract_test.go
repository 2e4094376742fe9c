package scanning

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeTesseract writes an executable shell script standing in for the CLI
func fakeTesseract(script string) string {
	path := filepath.Join(GinkgoT().TempDir(), "tesseract")
	Expect(os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755)).To(Succeed())
	return path
}

var _ = Describe("Tesseract", func() {
	It("returns the text printed on stdout", func() {
		bin := fakeTesseract("cat > /dev/null\nprintf 'WALMART\\nTOTAL $5.08\\n\\f'\n")

		text, err := NewTesseract(bin).DetectText(context.Background(), encodePNG(), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("WALMART\nTOTAL $5.08"))
	})

	It("passes the image on stdin with stdout output", func() {
		dir := GinkgoT().TempDir()
		captured := filepath.Join(dir, "stdin.png")
		args := filepath.Join(dir, "args")
		bin := fakeTesseract("cat > " + captured + "\necho \"$@\" > " + args + "\n")
		image := encodePNG()

		_, err := NewTesseract(bin).DetectText(context.Background(), image, "image/png")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.ReadFile(captured)).To(Equal(image))
		Expect(os.ReadFile(args)).To(Equal([]byte("stdin stdout\n")))
	})

	It("includes stderr when the process fails", func() {
		bin := fakeTesseract("cat > /dev/null\necho 'Error in pixReadMem' >&2\nexit 1\n")

		_, err := NewTesseract(bin).DetectText(context.Background(), encodePNG(), "image/png")
		Expect(err).To(MatchError(ContainSubstring("Error in pixReadMem")))
	})

	It("reports a missing binary", func() {
		_, err := NewTesseract(filepath.Join(GinkgoT().TempDir(), "missing")).
			DetectText(context.Background(), encodePNG(), "image/png")
		Expect(err).To(MatchError(ContainSubstring("running")))
	})

	It("uses tesseract from PATH by default", func() {
		Expect(NewTesseract("").bin).To(Equal("tesseract"))
	})
})
