// Package extraction implements the workflow stage that turns inbox
// documents into plain text.
//
// The stage shells out through the extract client (pdftotext for PDFs,
// tesseract for images) and stores the resulting text on the queue item for
// the classifier. Extraction failures are terminal: the document is moved to
// the quarantine directory so the inbox scanner does not pick it up again.
package extraction
