/*
Package node implements the template text node of the pipeline canvas.

A TextNode owns a piece of template text. Every edit goes through SetText, which
reconciles all derived state in one step:

 1. the variables referenced by the text are extracted,
 2. text and variables are published to the GraphStore under the node id,
 3. ports and size are derived from the new variables,
 4. the text area is measured and, if its height changed, the size is adjusted once more.

The node never re-derives variables on the second pass, so a reconciliation
always terminates after at most two layout passes.
*/
package node
