// Package extract turns uploaded files into plain text.
//
// Dispatcher maps a file type tag to a strategy:
//
//   - pdf: the text layer (docconv), falling back to OCRStrategy on
//     rendered page images when the layer is empty
//   - mp3, wav, m4a, mp4: AudioStrategy over fixed-length segments
//   - doc, docx, ppt, pptx: docconv
//   - xls, xlsx: excelize
//   - txt: BOM-aware decoding
//   - jpg, jpeg, png, gif, bmp, tiff: single-image OCR
//
// OCR and transcription fan out through taskrunner, so pages and
// segments are processed concurrently and reassembled in order. A
// strategy never fails the dispatch: failures degrade the Outcome.
//
// External tools (pdftoppm, ffmpeg, soffice) are invoked through the
// PdftoppmRenderer, FFmpeg and LibreOffice adapters.
package extract
