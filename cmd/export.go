package cmd

import (
	"deweydata/internal/s3client"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var exportCmd = &cobra.Command{
	Use:   "export [folder]",
	Short: "Upload a folder of downloaded files to S3",
	Long: `Upload a local folder, typically the destination of "download", to the
S3-compatible bucket configured by API_URL, ACCESS_KEY, SECRET_KEY,
BUCKET_NAME and REGION.

Files keep their path relative to the folder below --destination. With
--archive the folder is zipped first and only the archive is uploaded.
With --skip-existing objects that are already in the bucket are not uploaded
again.`,
	Example: `  # Upload every file of data/ below exports/weekly
  deweydata export data/ --destination exports/weekly --confirm

  # Upload only what is not in the bucket yet
  deweydata export data/ --destination exports/weekly --skip-existing --confirm

  # Upload one zip archive to another bucket
  deweydata export data/ --archive --bucket my-other-bucket

  # Show what would be uploaded
  deweydata export data/ --destination exports/weekly --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	folder := args[0]
	destination, _ := cmd.Flags().GetString("destination")
	archive, _ := cmd.Flags().GetBool("archive")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	confirm, _ := cmd.Flags().GetBool("confirm")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	info, err := os.Stat(folder)
	if err != nil {
		return fail(cmd, err)
	}
	if !info.IsDir() {
		return fail(cmd, fmt.Errorf("%s is not a directory", folder))
	}

	if dryRun {
		plan, err := exportPlan(folder, destination, archive)
		if err != nil {
			return fail(cmd, err)
		}
		return printJSON(cmd, map[string]interface{}{
			"bucket_name":      getBucketName(cmd),
			"source_dir":       folder,
			"destination_path": destination,
			"remote_paths":     plan,
			"archive":          archive,
			"dry_run":          true,
		})
	}

	if !confirm {
		fmt.Fprintf(cmd.ErrOrStderr(), "Export operation summary:\n")
		fmt.Fprintf(cmd.ErrOrStderr(), "  Bucket: %s\n", getBucketName(cmd))
		fmt.Fprintf(cmd.ErrOrStderr(), "  Folder: %s\n", folder)
		fmt.Fprintf(cmd.ErrOrStderr(), "  Destination: %s\n", getDestinationDisplay(destination))
		fmt.Fprintf(cmd.ErrOrStderr(), "  Archive: %t\n", archive)

		fmt.Fprint(cmd.ErrOrStderr(), "Continue with export? (y/N): ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if !slices.Contains([]string{"y", "yes"}, strings.ToLower(response)) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Export cancelled.")
			return nil
		}
	}

	c := *cfg
	c.BucketName = getBucketName(cmd)
	client, err := s3client.New(&c)
	if err != nil {
		return fail(cmd, err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := client.ExportFolder(ctx, folder, destination, s3client.ExportOptions{
		Archive:      archive,
		SkipExisting: skipExisting,
	})
	if err != nil {
		return fail(cmd, err)
	}
	return printJSON(cmd, result)
}

func getBucketName(cmd *cobra.Command) string {
	bucket, _ := cmd.Flags().GetString("bucket")
	if bucket != "" {
		return bucket
	}
	return cfg.BucketName
}

func getDestinationDisplay(destination string) string {
	if destination == "" {
		return "bucket root"
	}
	return destination
}

// exportPlan lists the object keys a non-archive export would write.
func exportPlan(folder, destination string, archive bool) ([]string, error) {
	prefix := strings.TrimPrefix(destination, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if archive {
		return []string{prefix + filepath.Base(filepath.Clean(folder)) + "_<timestamp>.zip"}, nil
	}

	var keys []string
	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		keys = append(keys, prefix+filepath.ToSlash(rel))
		return nil
	})
	return keys, err
}

func init() {
	exportCmd.Flags().StringP("destination", "d", "", "Destination folder in the bucket (optional)")
	exportCmd.Flags().StringP("bucket", "b", "", "Override bucket name from config")
	exportCmd.Flags().Bool("archive", false, "Upload one zip archive of the folder")
	exportCmd.Flags().Bool("skip-existing", false, "Do not upload objects that already exist")
	exportCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	exportCmd.Flags().Bool("dry-run", false, "Show what would be uploaded without uploading")
}
