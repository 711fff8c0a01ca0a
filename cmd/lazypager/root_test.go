package main

import "testing"

func TestRootCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := newRootCmd()

	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("Args(nil) = nil, want an error for zero positional arguments")
	}
	if err := cmd.Args(cmd, []string{"a.elf"}); err != nil {
		t.Errorf("Args([a.elf]) = %v, want nil", err)
	}
	if err := cmd.Args(cmd, []string{"a.elf", "b.elf"}); err == nil {
		t.Error("Args([a.elf b.elf]) = nil, want an error for two positional arguments")
	}
}

func TestRootCmdDefaultFlags(t *testing.T) {
	cmd := newRootCmd()

	verbose, err := cmd.PersistentFlags().GetBool("verbose")
	if err != nil {
		t.Fatalf("GetBool(verbose): %v", err)
	}
	if verbose {
		t.Error("default --verbose = true, want false")
	}

	maxPages, err := cmd.PersistentFlags().GetInt("max-pages")
	if err != nil {
		t.Fatalf("GetInt(max-pages): %v", err)
	}
	if maxPages != 0 {
		t.Errorf("default --max-pages = %d, want 0", maxPages)
	}
}
