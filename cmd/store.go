package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pacquet/pacquet/internal/config"
	"github.com/pacquet/pacquet/internal/integrity"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or maintain the content-addressed store",
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report content-addressed store size and blob count",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(".")
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
		blobs, size, err := walkBlobs(cfg.StoreDir)
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
		fmt.Println("store:", cfg.StoreDir)
		fmt.Println("  blobs:", blobs)
		fmt.Println("  size:", humanSize(size))
	},
}

var prunePromptYes bool

var storePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Discover (and optionally remove) CAS blobs unreferenced by this project's virtual store",
	Long: `Prune walks the virtual store directory, re-derives the content-addressed
path every materialized file would map to, and reports store blobs that
match none of them.

Only the current project's virtual store is scanned. The store is shared
across every project on the machine, so blobs used only by other
projects' virtual stores are reported as unreferenced too.

By default this is read-only discovery. Pass --yes to actually remove the
reported blobs; nothing is removed without it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(".")
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}

		spinner := ui.NewSpinner("Scanning virtual store for referenced blobs...")
		spinner.Start()
		referenced, err := referencedBlobPaths(cfg.StoreDir, cfg.VirtualStoreDir)
		spinner.Stop()
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}

		unreferenced, _, err := unreferencedBlobs(cfg.StoreDir, referenced)
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
		if len(unreferenced) == 0 {
			ui.Success.Println("no unreferenced blobs found")
			return
		}

		var freed, removedBytes int64
		removed := 0
		for _, path := range unreferenced {
			var size int64
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
			freed += size
			if !prunePromptYes {
				ui.Step("-", path)
				continue
			}
			if err := os.Remove(path); err != nil {
				fmt.Printf("%s removing %s: %v\n", ui.CrossMark(), path, err)
				continue
			}
			removed++
			removedBytes += size
			fmt.Printf("%s %s\n", ui.CheckMark(), path)
		}

		if !prunePromptYes {
			ui.Info.Printf("%d blob(s), %s would be freed (rerun with --yes to remove)\n", len(unreferenced), humanSize(freed))
			return
		}
		ui.Success.Printf("removed %d blob(s), %s freed\n", removed, humanSize(removedBytes))
	},
}

func init() {
	storePruneCmd.Flags().BoolVar(&prunePromptYes, "yes", false, "actually remove unreferenced blobs instead of only listing them")
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storePruneCmd)
	rootCmd.AddCommand(storeCmd)
}

// walkBlobs counts every regular file under storeDir and sums their sizes.
// Temp files mid-write (".tmp-*") are skipped, matching cas.Store's own
// staging convention.
func walkBlobs(storeDir string) (count int, size int64, err error) {
	err = filepath.Walk(storeDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() || isTempBlob(info.Name()) {
			return nil
		}
		count++
		size += info.Size()
		return nil
	})
	return count, size, err
}

func isTempBlob(name string) bool {
	return len(name) >= 5 && name[:5] == ".tmp-"
}

// referencedBlobPaths walks virtualStoreDir, hashing every regular,
// non-symlink file and deriving the CAS path its content would map to.
// This never reads the CAS itself for materialized content, so it holds
// even when importer.Materialize used reflink-or-copy rather than a
// hardlink back into the store.
func referencedBlobPaths(storeDir, virtualStoreDir string) (map[string]struct{}, error) {
	referenced := make(map[string]struct{})
	err := filepath.Walk(virtualStoreDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() || info.Mode()&os.ModeSymlink != 0 || !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		sri, err := integrity.OfReader(f)
		if err != nil {
			return err
		}
		hex := sri.HexDigest()
		referenced[filepath.Join(storeDir, hex[:2], hex[2:])] = struct{}{}
		referenced[filepath.Join(storeDir, hex[:2], hex[2:]+"-exec")] = struct{}{}
		return nil
	})
	return referenced, err
}

func unreferencedBlobs(storeDir string, referenced map[string]struct{}) (paths []string, total int64, err error) {
	err = filepath.Walk(storeDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() || isTempBlob(info.Name()) {
			return nil
		}
		// Index blobs (extraction indices) aren't content-addressed by a
		// materialized file's own hash; never a prune candidate here.
		if filepath.Ext(path) == ".json" {
			return nil
		}
		if _, ok := referenced[path]; !ok {
			paths = append(paths, path)
			total += info.Size()
		}
		return nil
	})
	return paths, total, err
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
