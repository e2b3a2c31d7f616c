package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/midbel/xpath/xml"
	"github.com/midbel/xpath"
)

type QueryCmd struct {
	Version string
	Noout   bool
	Text    bool
	Timing  bool
	NS      nsFlag
}

var queryCmd = QueryCmd{
	Version: "3.1",
}

const queryInfo = "query took %s - %d item(s) matching %q"

func (q QueryCmd) Run(args []string) error {
	set := flag.NewFlagSet("query", flag.ContinueOnError)
	set.StringVar(&q.Version, "version", q.Version, "xpath version (1.0, 2.0, 3.0, 3.1)")
	set.BoolVar(&q.Noout, "quiet", false, "suppress output - default is to print the result items")
	set.BoolVar(&q.Text, "text", false, "print only the string value of each item")
	set.BoolVar(&q.Timing, "timing", false, "report evaluation time")
	set.Var(&q.NS, "ns", "namespace binding as prefix=uri, repeatable")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 2 {
		return fmt.Errorf("usage: query <expression> <document>")
	}
	doc, err := xml.ParseFile(set.Arg(1))
	if err != nil {
		return err
	}
	options, err := q.options()
	if err != nil {
		return err
	}
	now := time.Now()
	query, err := xpath.BuildWith(set.Arg(0), options...)
	if err != nil {
		return err
	}
	results, err := query.Find(doc)
	if err != nil {
		return err
	}
	elapsed := time.Since(now)
	if !q.Noout {
		printItems(results, q.Text)
	}
	if q.Timing {
		fmt.Fprintf(os.Stdout, queryInfo, elapsed, results.Len(), set.Arg(0))
		fmt.Fprintln(os.Stdout)
	}
	if results.Empty() {
		return errFail
	}
	return nil
}

func (q QueryCmd) options() ([]xpath.Option, error) {
	var options []xpath.Option
	switch q.Version {
	case "1.0":
		options = append(options, xpath.WithCompat())
	case "2.0":
		options = append(options, xpath.WithVersion(xpath.Version20))
	case "3.0":
		options = append(options, xpath.WithVersion(xpath.Version30))
	case "3.1", "":
		options = append(options, xpath.WithVersion(xpath.Version31))
	default:
		return nil, fmt.Errorf("%s: unsupported xpath version", q.Version)
	}
	for _, ns := range q.NS {
		prefix, uri, ok := strings.Cut(ns, "=")
		if !ok {
			return nil, fmt.Errorf("%s: namespace binding must be prefix=uri", ns)
		}
		options = append(options, xpath.WithNamespace(prefix, uri))
	}
	return options, nil
}

type nsFlag []string

func (f *nsFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *nsFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func printItems(results xpath.Sequence, text bool) {
	for i := range results {
		node := results[i].Node()
		if node == nil || text {
			str, _ := xpath.String(results[i])
			fmt.Fprintln(os.Stdout, str)
			continue
		}
		fmt.Fprint(os.Stdout, xml.WriteNode(node))
	}
}

type DebugCmd struct{}

var debugCmd DebugCmd

func (DebugCmd) Run(args []string) error {
	set := flag.NewFlagSet("debug", flag.ContinueOnError)
	version := set.String("version", "3.1", "xpath version")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 1 {
		return fmt.Errorf("usage: debug <expression>")
	}
	var options []xpath.Option
	switch *version {
	case "1.0":
		options = append(options, xpath.WithCompat())
	case "2.0":
		options = append(options, xpath.WithVersion(xpath.Version20))
	case "3.0":
		options = append(options, xpath.WithVersion(xpath.Version30))
	}
	query, err := xpath.BuildWith(set.Arg(0), options...)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, xpath.Debug(query))
	return nil
}
