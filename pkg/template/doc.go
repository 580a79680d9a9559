/*
Package template reduces templated text files to concrete fixtures.

Markers use the <% %> delimiters of the generator templates:

	<%= expr %>   substitution (also <%- expr %>)
	<%# text %>   comment
	<% code %>    scriptlet; if/else if/else blocks are evaluated, other code is dropped

Reduction runs two passes over the lexed document. The substitution pass replaces
every output marker with its bound value (unbound names become empty strings).
The structural pass evaluates conditional blocks and strips every remaining marker.
The result never contains marker delimiters.
*/
package template
