package webservice

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SortDirection is the direction of a sort key.
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// normalize upper-cases d and defaults an empty direction to Ascending.
func (d SortDirection) normalize() (SortDirection, error) {
	switch up := SortDirection(strings.ToUpper(string(d))); up {
	case "":
		return Ascending, nil
	case Ascending, Descending:
		return up, nil
	}
	return "", ErrInvalidSortDirection
}

// DisplayFull asks the web service to return every field of every record.
const DisplayFull = "full"

// SortField is one sort key of a list request. Direction is
// case-insensitive; empty means Ascending.
type SortField struct {
	Field     string
	Direction SortDirection
}

// ListOptions holds the display, filter, sort and pagination options of a
// list request. The zero value requests the bare collection.
type ListOptions struct {
	// Display restricts the returned fields. A single DisplayFull entry
	// returns complete records.
	Display []string

	// Filters maps a field name to the value it must match.
	Filters map[string]string

	// Sort orders the results by the given keys.
	Sort []SortField

	// Limit caps the number of records. Zero means no limit.
	Limit int

	// Offset is the 1-based position of the first record. It needs a Limit.
	Offset int
}

// Params encodes the options as web service query parameters:
//
//	display=[f1,f2]  filter[field]=[value]  sort=[f1_ASC,f2_DESC]
//	limit=N          limit=<offset-1>,N
func (o ListOptions) Params() (url.Values, error) {
	if o.Limit < 0 || o.Offset < 0 {
		return nil, fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPagination, o.Limit, o.Offset)
	}
	if o.Offset > 0 && o.Limit == 0 {
		return nil, fmt.Errorf("%w: offset=%d", ErrOffsetWithoutLimit, o.Offset)
	}

	params := url.Values{}

	if len(o.Display) == 1 && o.Display[0] == DisplayFull {
		params.Set("display", DisplayFull)
	} else if len(o.Display) > 0 {
		params.Set("display", bracket(o.Display))
	}

	for field, value := range o.Filters {
		params.Set("filter["+field+"]", "["+value+"]")
	}

	if len(o.Sort) > 0 {
		keys := make([]string, len(o.Sort))
		for i, s := range o.Sort {
			dir, err := s.Direction.normalize()
			if err != nil {
				return nil, fmt.Errorf("%w: %q on %s", err, s.Direction, s.Field)
			}
			keys[i] = s.Field + "_" + string(dir)
		}
		params.Set("sort", bracket(keys))
	}

	switch {
	case o.Limit > 0 && o.Offset > 0:
		params.Set("limit", strconv.Itoa(o.Offset-1)+","+strconv.Itoa(o.Limit))
	case o.Limit > 0:
		params.Set("limit", strconv.Itoa(o.Limit))
	}

	return params, nil
}

// withID returns a copy of o whose display list includes the id field.
func (o ListOptions) withID() ListOptions {
	if len(o.Display) == 0 {
		return o
	}
	for _, f := range o.Display {
		if f == "id" || f == DisplayFull {
			return o
		}
	}
	display := make([]string, 0, len(o.Display)+1)
	display = append(display, "id")
	o.Display = append(display, o.Display...)
	return o
}

func bracket(items []string) string {
	return "[" + strings.Join(items, ",") + "]"
}
