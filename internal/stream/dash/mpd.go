package dash

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/zencoder/go-dash/v3/mpd"
)

// parseBitrates extracts the bitrate list of every media type in the first period, ordered by ascending bitrate.
// TrackID follows document order, which is the order the media output numbers the tracks in.
func parseBitrates(data []byte) (map[string][]BitrateInfo, error) {
	doc, err := mpd.ReadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MPD: %w", err)
	}
	if len(doc.Periods) == 0 || doc.Periods[0] == nil {
		return nil, fmt.Errorf("MPD has no periods")
	}

	out := make(map[string][]BitrateInfo)
	trackIDs := make(map[string]int)
	for _, set := range doc.Periods[0].AdaptationSets {
		if set == nil {
			continue
		}
		for _, rep := range set.Representations {
			if rep == nil {
				continue
			}
			mediaType := mediaTypeOf(set, rep)
			if mediaType == "" {
				continue
			}
			trackIDs[mediaType]++
			out[mediaType] = append(out[mediaType], BitrateInfo{
				MediaType: mediaType,
				ID:        lo.FromPtr(rep.ID),
				Bitrate:   int(lo.FromPtr(rep.Bandwidth)),
				Width:     firstPositive(int(lo.FromPtr(rep.Width)), atoi(set.Width)),
				Height:    firstPositive(int(lo.FromPtr(rep.Height)), atoi(set.Height)),
				TrackID:   trackIDs[mediaType],
			})
		}
	}

	for mediaType, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Bitrate < list[j].Bitrate })
		for i := range list {
			list[i].QualityIndex = i
		}
		out[mediaType] = list
	}

	return out, nil
}

func mediaTypeOf(set *mpd.AdaptationSet, rep *mpd.Representation) string {
	if ct := lo.FromPtr(set.ContentType); ct != "" {
		return ct
	}
	mime := lo.FromPtr(rep.MimeType)
	if mime == "" {
		mime = lo.FromPtr(set.MimeType)
	}
	if i := strings.IndexByte(mime, '/'); i > 0 {
		return mime[:i]
	}
	return ""
}

// atoi reads an optional numeric attribute the MPD library keeps as text
func atoi(s *string) int {
	n, err := strconv.Atoi(lo.FromPtr(s))
	if err != nil {
		return 0
	}
	return n
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
