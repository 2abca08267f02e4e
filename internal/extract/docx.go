package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const docxBodyPart = "word/document.xml"

// docxLoaders fetch the raw document.xml; the zip reader covers packages the docx library rejects.
var docxLoaders = []strategy{
	{name: "docx package", run: loadDocxPackage},
	{name: "docx zip", run: loadDocxZip},
}

func extractDOCX(data []byte) (string, []string, error) {
	if len(data) == 0 {
		return "", nil, errors.New("empty docx data")
	}
	raw, warnings, err := firstSuccess(docxLoaders, data, func(s string) bool { return s != "" })
	if err != nil {
		return "", nil, err
	}
	paragraphs, cells, err := parseDocxBody(raw)
	if err != nil {
		return "", warnings, err
	}
	lines := make([]string, 0, len(paragraphs)+len(cells))
	lines = append(lines, paragraphs...)
	lines = append(lines, cells...)
	return strings.Join(lines, "\n"), warnings, nil
}

func loadDocxPackage(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return doc.Editable().GetContent(), nil
}

func loadDocxZip(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return "", errors.New("document.xml file not found")
}

// parseDocxBody returns non-blank body paragraphs and non-blank table cells, each in document order.
// A cell's text is its paragraphs joined with newlines.
func parseDocxBody(raw string) ([]string, []string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var (
		paragraphs []string
		cells      []string
		tableDepth int
		runDepth   int
		inText     bool
		paraStack  []*strings.Builder
		cellStack  [][]string
	)
	current := func() *strings.Builder {
		if len(paraStack) == 0 {
			return nil
		}
		return paraStack[len(paraStack)-1]
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tc":
				cellStack = append(cellStack, nil)
			case "p":
				paraStack = append(paraStack, &strings.Builder{})
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// tab stop definitions in paragraph properties carry no text
				if b := current(); b != nil && runDepth > 0 {
					b.WriteString("\t")
				}
			case "br", "cr":
				if b := current(); b != nil && runDepth > 0 {
					b.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText {
				if b := current(); b != nil {
					b.Write(t)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "p":
				if len(paraStack) == 0 {
					continue
				}
				text := paraStack[len(paraStack)-1].String()
				paraStack = paraStack[:len(paraStack)-1]
				if len(paraStack) > 0 {
					// text box content nested inside another paragraph
					continue
				}
				switch {
				case tableDepth > 0 && len(cellStack) > 0:
					cellStack[len(cellStack)-1] = append(cellStack[len(cellStack)-1], text)
				case tableDepth == 0 && hasText(text):
					paragraphs = append(paragraphs, text)
				}
			case "tc":
				if len(cellStack) == 0 {
					continue
				}
				text := strings.Join(cellStack[len(cellStack)-1], "\n")
				cellStack = cellStack[:len(cellStack)-1]
				if hasText(text) {
					cells = append(cells, text)
				}
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			}
		}
	}
	return paragraphs, cells, nil
}
