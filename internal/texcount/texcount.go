// Package texcount counts the prose words of a LaTeX source tree, following
// \input and \include references recursively.
package texcount

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Node is the word count of a single file and of the files it references.
type Node struct {
	Path string
	// CN is the number of Chinese characters, EN the number of latin words.
	CN, EN   int
	Err      string
	Children []*Node
}

// Total returns the word count of this file alone.
func (n *Node) Total() int {
	return n.CN + n.EN
}

// Totals returns the accumulated counts of this file and all its references.
func (n *Node) Totals() (cn, en int) {
	cn, en = n.CN, n.EN
	for _, child := range n.Children {
		childCN, childEN := child.Totals()
		cn += childCN
		en += childEN
	}
	return cn, en
}

var (
	commentRe     = regexp.MustCompile(`%.*`)
	displayMathRe = regexp.MustCompile(`(?s)\\\[.*?\\\]`)
	doubleMathRe  = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$.*?\$`)
	commandRe     = regexp.MustCompile(`\\[a-zA-Z]+`)
	referenceRe   = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)
	chineseRe     = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	punctRe       = regexp.MustCompile(`[^\w\s]`)
)

// ignoredCommands are commands whose braced argument is structural, not prose.
var ignoredCommands = []string{
	"cite", "ref", "label", "usepackage", "input", "include",
	"bibliography", "bibliographystyle", "documentclass", "pagestyle",
	"thispagestyle", "vskip", "vspace", "hspace", "setlength", "setcounter",
}

var ignoredCommandRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(ignoredCommands))
	for _, cmd := range ignoredCommands {
		res = append(res, regexp.MustCompile(`\\`+cmd+`\{[^}]*\}`))
	}
	return res
}()

// Count walks the document tree rooted at path and returns its word counts.
// Unreadable or missing referenced files are reported on their node rather
// than aborting the count; a file referenced twice is only counted once.
func Count(path string) *Node {
	return countFile(path, make(map[string]bool))
}

func countFile(path string, seen map[string]bool) *Node {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	if seen[resolved] {
		return nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Node{Path: path, Err: "file not found"}
	}
	seen[resolved] = true
	if err != nil {
		return &Node{Path: path, Err: err.Error()}
	}

	// References are collected before cleaning strips the \input commands.
	// Commented-out references are not followed.
	withoutComments := commentRe.ReplaceAllString(string(content), "")
	references := referenceRe.FindAllStringSubmatch(withoutComments, -1)

	cn, en := countWords(string(content))
	node := &Node{Path: path, CN: cn, EN: en}

	for _, ref := range references {
		child := countFile(resolvePath(path, ref[1]), seen)
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}

	return node
}

// countWords strips comments, math and commands from the given LaTeX source
// and returns the number of Chinese characters and of latin words left.
func countWords(content string) (cn, en int) {
	content = commentRe.ReplaceAllString(content, "")
	content = displayMathRe.ReplaceAllString(content, "")
	content = doubleMathRe.ReplaceAllString(content, "")
	content = inlineMathRe.ReplaceAllString(content, "")
	for _, re := range ignoredCommandRes {
		content = re.ReplaceAllString(content, "")
	}
	content = commandRe.ReplaceAllString(content, " ")
	content = strings.NewReplacer("{", " ", "}", " ").Replace(content)

	cn = len(chineseRe.FindAllString(content, -1))

	content = chineseRe.ReplaceAllString(content, " ")
	content = punctRe.ReplaceAllString(content, "")
	en = len(strings.Fields(content))

	return cn, en
}

// resolvePath locates a referenced file: first relative to the working
// directory, then relative to the referencing file. The .tex extension may be
// omitted in the reference.
func resolvePath(parent, ref string) string {
	if !strings.HasSuffix(ref, ".tex") {
		ref += ".tex"
	}

	if _, err := os.Stat(ref); err == nil {
		return ref
	}

	relative := filepath.Join(filepath.Dir(parent), ref)
	if _, err := os.Stat(relative); err == nil {
		return relative
	}

	return ref
}

// WriteReport renders the word count tree and its grand total to w. maxDepth
// limits how many levels below the root are shown, 0 meaning no limit.
func WriteReport(w io.Writer, root *Node, maxDepth int) {
	fmt.Fprintln(w, "Word Count Tree Structure:")
	fmt.Fprintf(w, "%s %s\n", root.Path, stats(root))

	for i, child := range root.Children {
		writeTree(w, child, "", i == len(root.Children)-1, 1, maxDepth)
	}

	cn, en := root.Totals()
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "GRAND TOTAL: CN: %d, EN: %d, Total: %d\n", cn, en, cn+en)
}

func writeTree(w io.Writer, node *Node, prefix string, isLast bool, depth, maxDepth int) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	fmt.Fprintf(w, "%s%s%s %s\n", prefix, connector, node.Path, stats(node))

	if maxDepth > 0 && depth >= maxDepth {
		return
	}

	childPrefix := prefix + "│   "
	if isLast {
		childPrefix = prefix + "    "
	}
	for i, child := range node.Children {
		writeTree(w, child, childPrefix, i == len(node.Children)-1, depth+1, maxDepth)
	}
}

func stats(n *Node) string {
	s := fmt.Sprintf("(CN: %d, EN: %d, Total: %d)", n.CN, n.EN, n.Total())
	if n.Err != "" {
		s += fmt.Sprintf(" [Error: %s]", n.Err)
	}
	return s
}
