package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/data"
)

// Write formats v to w. Table formats render tableData; the others encode
// v as is.
func Write(w io.Writer, format Format, v any, tableData any) error {
	switch format {
	case FormatTable, FormatWide, "":
		return NewFormatter(format).Format(w, tableData)
	default:
		return NewFormatter(format).Format(w, v)
	}
}

// FrameToTableData renders a frame with one column per field. Wide output
// adds the field type to each header.
func FrameToTableData(frame *data.Frame, wide bool) Data {
	td := Data{}
	for _, field := range frame.Fields {
		header := field.Name
		if wide {
			header = fmt.Sprintf("%s (%s)", field.Name, field.Type)
		}
		td.Headers = append(td.Headers, header)
		td.ColumnAlignment = append(td.ColumnAlignment, alignFor(field.Type))
	}
	for i := 0; i < frame.Rows(); i++ {
		row := make([]string, len(frame.Fields))
		for j, field := range frame.Fields {
			if i < field.Len() {
				row[j] = formatValue(field.At(i))
			}
		}
		td.Rows = append(td.Rows, row)
	}
	return td
}

// QueryResultsToTableData renders a summary of every query, ordered by
// refID, followed by the frames of the successful queries.
func QueryResultsToTableData(resp *backend.QueryDataResponse, wide bool) []Data {
	refIDs := make([]string, 0, len(resp.Responses))
	for refID := range resp.Responses {
		refIDs = append(refIDs, refID)
	}
	sort.Strings(refIDs)

	summary := Data{Headers: []string{"RefID", "Frames", "Channel", "Error"}}
	if wide {
		summary.Headers = append(summary.Headers, "Status")
	}
	var frames []Data
	for _, refID := range refIDs {
		dr := resp.Responses[refID]
		errText, channel := "", ""
		if dr.Error != nil {
			errText = dr.Error.Error()
		}
		for _, frame := range dr.Frames {
			if frame.Meta != nil && frame.Meta.Channel != "" {
				channel = frame.Meta.Channel
			}
			frames = append(frames, FrameToTableData(frame, wide))
		}
		row := []string{refID, strconv.Itoa(len(dr.Frames)), channel, errText}
		if wide {
			row = append(row, strconv.Itoa(dr.Status))
		}
		summary.Rows = append(summary.Rows, row)
	}
	return append([]Data{summary}, frames...)
}

// PacketsToTableData renders one row per stream packet. Each cell holds the
// values of one field of the packet's frame.
func PacketsToTableData(packets []backend.StreamPacket) (Data, error) {
	td := Data{Headers: []string{"Seq"}, ColumnAlignment: []Align{AlignRight}}
	for i, packet := range packets {
		frame, err := packet.Frame()
		if err != nil {
			return Data{}, err
		}
		if i == 0 {
			for _, field := range frame.Fields {
				td.Headers = append(td.Headers, field.Name)
				td.ColumnAlignment = append(td.ColumnAlignment, AlignLeft)
			}
		}
		row := []string{strconv.Itoa(i + 1)}
		for _, field := range frame.Fields {
			values := make([]string, field.Len())
			for j := range values {
				values[j] = formatValue(field.At(j))
			}
			row = append(row, strings.Join(values, ", "))
		}
		td.Rows = append(td.Rows, row)
	}
	return td, nil
}

func alignFor(t data.FieldType) Align {
	switch t {
	case data.FieldTypeUint32, data.FieldTypeInt64, data.FieldTypeFloat64:
		return AlignRight
	default:
		return AlignLeft
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
