// Command bookctl is a terminal client for the bookshelf API. All calls go
// through the retrying request façade, so transient server errors are
// retried before anything is reported to the user.
package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"bookshelf/internal/apiclient"
	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/requests"
)

func main() {
	_ = godotenv.Load(".env.local")

	app := &cli.App{
		Name:  "bookctl",
		Usage: "manage a bookshelf collection from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "base URL of the bookshelf API",
				Value:   "http://localhost:8080",
				EnvVars: []string{"BOOKSHELF_SERVER"},
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			getCommand(),
			addCommand(),
			updateCommand(),
			deleteCommand(),
			searchCommand(),
			ocrCommand(),
			imageSearchCommand(),
			lookupCommand(),
			recommendCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func client(c *cli.Context) *apiclient.Client {
	return apiclient.New(c.String("server"), requests.Config{})
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list all books, newest first",
		Action: func(c *cli.Context) error {
			books, err := client(c).ListBooks(c.Context)
			if err != nil {
				return friendly(err)
			}
			printBooks(books)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "show one book",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			b, err := client(c).GetBook(c.Context, id)
			if err != nil {
				return friendly(err)
			}
			printBook(*b)
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "add a book to the collection",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringFlag{Name: "author"},
			&cli.IntFlag{Name: "year-read"},
			&cli.IntFlag{Name: "rating"},
			&cli.StringFlag{Name: "notes"},
			&cli.StringFlag{Name: "isbn"},
			&cli.StringFlag{Name: "publisher"},
		},
		Action: func(c *cli.Context) error {
			in := book.CreateInput{
				Title:     c.String("title"),
				Author:    c.String("author"),
				Notes:     c.String("notes"),
				ISBN:      c.String("isbn"),
				Publisher: c.String("publisher"),
			}
			if c.IsSet("year-read") {
				year := c.Int("year-read")
				in.YearRead = &year
			}
			if c.IsSet("rating") {
				rating := c.Int("rating")
				in.Rating = &rating
			}
			b, err := client(c).CreateBook(c.Context, in)
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("Added book %d: %s\n", b.ID, b.Title)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "update fields of an existing book; omitted flags are left unchanged",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "author"},
			&cli.IntFlag{Name: "year-read"},
			&cli.IntFlag{Name: "rating"},
			&cli.StringFlag{Name: "notes"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			var in book.UpdateInput
			if c.IsSet("title") {
				title := c.String("title")
				in.Title = &title
			}
			if c.IsSet("author") {
				author := c.String("author")
				in.Author = &author
			}
			if c.IsSet("year-read") {
				year := c.Int("year-read")
				in.YearRead = &year
			}
			if c.IsSet("rating") {
				rating := c.Int("rating")
				in.Rating = &rating
			}
			if c.IsSet("notes") {
				notes := c.String("notes")
				in.Notes = &notes
			}
			b, err := client(c).UpdateBook(c.Context, id, in)
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("Updated book %d\n", b.ID)
			printBook(*b)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a book",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return err
			}
			if err := client(c).DeleteBook(c.Context, id); err != nil {
				return friendly(err)
			}
			fmt.Printf("Deleted book %d\n", id)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search the collection by title, author, isbn, publisher, or description",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return cli.Exit("search query is required", 1)
			}
			books, err := client(c).SearchBooks(c.Context, query)
			if err != nil {
				return friendly(err)
			}
			printBooks(books)
			return nil
		},
	}
}

func ocrCommand() *cli.Command {
	return &cli.Command{
		Name:      "ocr",
		Usage:     "extract title and author from a cover photo",
		ArgsUsage: "<image file>",
		Action: func(c *cli.Context) error {
			file, err := openImageArg(c)
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := client(c).ProcessCover(c.Context, file.Name(), file)
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("Title:  %s\n", result.BookInfo.Title)
			fmt.Printf("Author: %s\n", result.BookInfo.Author)
			return nil
		},
	}
}

func imageSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "image-search",
		Usage:     "search the collection using a cover photo",
		ArgsUsage: "<image file>",
		Action: func(c *cli.Context) error {
			file, err := openImageArg(c)
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := client(c).SearchByImage(c.Context, file.Name(), file)
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("Recognized: %q by %q\n", result.ExtractedInfo.Title, result.ExtractedInfo.Author)
			printBooks(result.Books)
			return nil
		},
	}
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "look up book metadata by free text or ISBN",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "isbn", Usage: "treat the argument as an ISBN"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return cli.Exit("lookup query is required", 1)
			}
			if c.Bool("isbn") {
				b, err := client(c).LookupISBN(c.Context, query)
				if err != nil {
					return friendly(err)
				}
				printExternal([]googlebooks.ExternalBook{*b})
				return nil
			}
			result, err := client(c).SearchExternal(c.Context, query)
			if err != nil {
				return friendly(err)
			}
			printExternal(result.Books)
			return nil
		},
	}
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "suggest new books based on the collection",
		Action: func(c *cli.Context) error {
			books, err := client(c).Recommendations(c.Context)
			if err != nil {
				return friendly(err)
			}
			printExternal(books)
			return nil
		},
	}
}

func idArg(c *cli.Context) (int, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, cli.Exit("book id is required", 1)
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("invalid book id %q", arg), 1)
	}
	return id, nil
}

func openImageArg(c *cli.Context) (*os.File, error) {
	path := c.Args().First()
	if path == "" {
		return nil, cli.Exit("image file is required", 1)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("open %s: %v", path, err), 1)
	}
	return file, nil
}

// friendly rewrites API errors into terminal-appropriate messages. A 503
// means the upstream metadata service is down and worth retrying later.
func friendly(err error) error {
	var httpErr *requests.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusServiceUnavailable {
			return cli.Exit("the book service is temporarily unavailable, try again in a moment", 1)
		}
		return cli.Exit(httpErr.Message, 1)
	}
	return err
}

func printBooks(books []book.Book) {
	if len(books) == 0 {
		fmt.Println("No books found")
		return
	}
	for _, b := range books {
		printBook(b)
	}
}

func printBook(b book.Book) {
	line := fmt.Sprintf("%4d  %s", b.ID, b.Title)
	if b.Author != "" {
		line += " - " + b.Author
	}
	if b.Rating != nil {
		line += fmt.Sprintf("  [%d/5]", *b.Rating)
	}
	if b.YearRead != nil {
		line += fmt.Sprintf("  (read %d)", *b.YearRead)
	}
	fmt.Println(line)
}

func printExternal(books []googlebooks.ExternalBook) {
	if len(books) == 0 {
		fmt.Println("No books found")
		return
	}
	for _, b := range books {
		line := b.Title
		if b.Author != "" {
			line += " - " + b.Author
		}
		if b.PublishedDate != "" {
			line += " (" + b.PublishedDate + ")"
		}
		fmt.Println("  " + line)
	}
}
