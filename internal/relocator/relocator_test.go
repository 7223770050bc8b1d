package relocator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRelocateAbsoluteSymlink(t *testing.T) {
	root := t.TempDir()

	// /usr/bin/foo -> /bin/foo must become ../../bin/foo.
	if err := os.MkdirAll(filepath.Join(root, "usr", "bin"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(root, "usr", "bin", "foo")
	if err := os.Symlink("/bin/foo", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	count, err := Relocate(root)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if count != 1 {
		t.Errorf("rewrote %d links, want 1", count)
	}

	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "../../bin/foo" {
		t.Errorf("target = %q, want %q", target, "../../bin/foo")
	}
}

func TestRelocateTopLevelLink(t *testing.T) {
	root := t.TempDir()

	link := filepath.Join(root, "initrd")
	if err := os.Symlink("/boot/initrd.img", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := Relocate(root); err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}

	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "boot/initrd.img" {
		t.Errorf("target = %q, want %q", target, "boot/initrd.img")
	}
}

func TestRelocateLeavesRelativeLinks(t *testing.T) {
	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "usr", "lib"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(root, "usr", "lib", "libz.so")
	if err := os.Symlink("libz.so.1.2.11", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	count, err := Relocate(root)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("rewrote %d links, want 0", count)
	}

	target, _ := os.Readlink(link)
	if target != "libz.so.1.2.11" {
		t.Errorf("relative link was modified: %q", target)
	}
}

func TestRelocateEquivalence(t *testing.T) {
	// The rewritten link, resolved from its own directory, must reach
	// the same location inside the sysroot the absolute form named.
	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "etc", "alternatives"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "usr", "bin"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "usr", "bin", "editor.real"), []byte("x"), 0755); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(root, "etc", "alternatives", "editor")
	if err := os.Symlink("/usr/bin/editor.real", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := Relocate(root); err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}

	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(link), target))
	want := filepath.Join(root, "usr", "bin", "editor.real")
	if resolved != want {
		t.Errorf("link resolves to %q, want %q", resolved, want)
	}
	if _, err := os.Stat(link); err != nil {
		t.Errorf("relocated link is dangling: %v", err)
	}
}

func TestRelocateRegularFilesUntouched(t *testing.T) {
	root := t.TempDir()

	file := filepath.Join(root, "etc", "hostname")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(file, []byte("sysroot\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	count, err := Relocate(root)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("rewrote %d links, want 0", count)
	}

	data, err := os.ReadFile(file)
	if err != nil || string(data) != "sysroot\n" {
		t.Errorf("regular file modified: %q, %v", data, err)
	}
}
