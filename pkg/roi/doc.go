// Package roi decodes ImageJ region-of-interest (.roi) records.
//
// A ROI record is a big-endian binary blob produced by ImageJ and Fiji when
// regions are saved to disk or collected in the ROI Manager. Many records
// are usually bundled as the entries of a zip archive; this package decodes
// the records themselves and aggregates them, leaving archive handling to
// package archive.
//
// # Record Format
//
// Every record starts with a 64-byte primary header:
//
//	[Magic "Iout"(4)][Version(2)][Type(1)][-(1)][Top Left Bottom Right(2 each)]
//	[N(2)][X1 Y1 X2 Y2 float32(16)][StrokeWidth(2)][ShapeSize(4)]
//	[StrokeColor(4)][FillColor(4)][Subtype(2)][Options(2)][ArrowStyle(1)]
//	[ArrowHead(1)][ArcSize(2)][Position(4)][Header2Offset(4)]
//
// Point-list shapes follow with N int16 X offsets, then N int16 Y offsets,
// both relative to the top-left corner of the box. When the sub-pixel
// option is set, N float32 X and N float32 Y absolute coordinates follow.
// Composite shapes instead store ShapeSize float32 values of path segments.
//
// An optional 64-byte extended header, addressed by Header2Offset, carries
// the hyperstack position, the record name, overlay label styling, a float
// stroke width, a properties string and point counters.
//
// # Usage
//
//	r, err := roi.Decode("cell-1", data)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(r.Kind, r.Box, len(r.Coordinates))
//
// Decoding a whole archive:
//
//	src, err := archive.Open("RoiSet.zip")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	coll, err := roi.DecodeAll(ctx, src.Entries(), roi.WithWorkers(4))
//	for key, r := range coll.All() {
//	    ...
//	}
//	for _, f := range coll.Failures() {
//	    log.Printf("skipped %s: %v", f.Name, f.Err)
//	}
//
// # Error Handling
//
// Decode returns errors wrapping ErrTruncatedData, ErrInvalidSignature or
// ErrUnsupportedShape, and never a partially decoded record. An out of
// range extended header is not fatal: its fields are omitted and the
// problem is recorded in ROI.Notes, wrapping ErrCorruptOffset. DecodeAll
// isolates failures per entry and lists them in Collection.Failures.
//
// # Thread Safety
//
// Decoding keeps no state between calls. Records and collections are not
// modified after they are returned and may be shared between goroutines.
package roi
