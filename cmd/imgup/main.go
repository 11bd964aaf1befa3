// Command imgup is a small terminal client for the easyimg API: it derives
// this machine's client identity, obtains an API key, and uploads, lists,
// or deletes images in the resulting namespace.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/easyimg/service/internal/client"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: imgup [flags] <command> [args]

commands:
  id                    print this machine's client identity
  key <password>        obtain and store a personal API key
  up <file>...          queue files and upload them
  ls                    refresh and print the upload history
  rm <storedName>       delete one stored file

flags:
`)
	flag.PrintDefaults()
}

func main() {
	server := flag.String("server", "http://localhost:3000", "API base URL")
	statePath := flag.String("state", defaultStatePath(), "session state file (empty disables persistence)")
	auto := flag.Bool("auto", false, "enable auto-upload chaining")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	session := client.NewSession(*server, "", *statePath)
	if err := session.LoadState(); err != nil {
		log.Fatalf("load state: %v", err)
	}
	applyAutoFlag(session, flag.CommandLine, *auto)

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "id":
		fmt.Println(session.ClientID())
	case "key":
		err = obtainKey(ctx, session, args)
	case "up":
		err = upload(ctx, session, args)
	case "ls":
		err = list(ctx, session)
	case "rm":
		err = remove(ctx, session, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// applyAutoFlag changes the persisted auto-upload setting only when -auto
// was given explicitly on the command line.
func applyAutoFlag(s *client.Session, fs *flag.FlagSet, auto bool) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "auto" {
			s.SetAutoUpload(auto)
		}
	})
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(filepath.Join(dir, "imgup"), 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "imgup", "state.json")
}

func obtainKey(ctx context.Context, s *client.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one password argument")
	}
	key, err := s.ObtainKey(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

func upload(ctx context.Context, s *client.Session, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files given")
	}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		s.AddFiles(client.PendingFile{
			Name:         filepath.Base(p),
			Size:         st.Size(),
			LastModified: st.ModTime().UnixMilli(),
			Path:         p,
		})
	}

	records, err := s.Upload(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s\t%d\t%s\n", rec.Name, rec.Size, rec.URL)
	}
	return nil
}

func list(ctx context.Context, s *client.Session) error {
	records, err := s.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no uploads")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s\t%d\t%s\t%s\n", rec.Name, rec.Size, rec.UploadTime, rec.URL)
	}
	return nil
}

func remove(ctx context.Context, s *client.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one stored file name")
	}
	return s.DeleteImage(ctx, args[0])
}
