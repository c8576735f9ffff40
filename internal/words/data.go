package words

// Top 200 common English words for standard typing tests.
var commonWords = []string{
	"the", "be", "of", "and", "a", "to", "in", "he", "have", "it", "that", "for", "they", "I", "with", "as", "not", "on", "she", "at",
	"by", "this", "we", "you", "do", "but", "from", "or", "which", "one", "would", "all", "will", "there", "say", "who", "make", "when",
	"can", "more", "if", "no", "man", "out", "other", "so", "what", "time", "up", "go", "about", "than", "into", "could", "state",
	"only", "new", "year", "some", "take", "come", "these", "know", "see", "use", "get", "like", "then", "first", "any", "work",
	"now", "may", "such", "give", "over", "think", "most", "even", "find", "day", "also", "after", "way", "many", "must", "look",
	"before", "great", "back", "through", "long", "where", "much", "should", "well", "people", "down", "own", "just", "because",
	"good", "each", "those", "feel", "seem", "how", "high", "too", "place", "little", "world", "very", "still", "nation", "hand",
	"old", "life", "tell", "write", "become", "here", "show", "house", "both", "between", "need", "mean", "call", "develop", "under",
	"last", "right", "move", "thing", "general", "school", "never", "same", "another", "begin", "while", "number", "part", "turn",
	"real", "leave", "might", "want", "point", "form", "off", "child", "few", "small", "since", "against", "ask", "late", "home",
	"interest", "large", "person", "end", "open", "public", "follow", "during", "present", "without", "again", "hold", "system", "water",
	"program", "always", "word", "every", "local", "run", "play", "fact", "keep", "group", "stand", "early", "set", "study",
}

var javascriptKeywords = []string{
	"const", "let", "var", "function", "return", "if", "else", "switch", "case", "default", "break", "continue",
	"for", "while", "do", "class", "export", "import", "from", "extends", "super", "this", "new", "null", "undefined",
	"typeof", "instanceof", "try", "catch", "finally", "throw", "async", "await", "yield", "=>", "==", "===", "!=", "!==",
	"console.log", "document.getElementById", "addEventListener", "setTimeout", "Promise", "Array", "Object", "String", "Number",
}

var pythonKeywords = []string{
	"def", "class", "return", "if", "elif", "else", "try", "except", "finally", "with", "as", "import", "from",
	"and", "or", "not", "is", "in", "for", "while", "break", "continue", "pass", "yield", "lambda", "global", "nonlocal",
	"True", "False", "None", "print", "len", "range", "str", "int", "float", "list", "dict", "set", "tuple", "open",
}

var htmlTags = []string{
	"<html>", "<head>", "<body>", "<div>", "<span>", "<a>", "<img>", "<p>", "<h1>", "<h2>", "<h3>", "<ul>", "<li>",
	"<ol>", "<table>", "<tr>", "<td>", "<th>", "<form>", "<input>", "<button>", "<script>", "<style>", "<link>", "<meta>",
	"header", "footer", "nav", "section", "article", "aside", "main", "class=", "id=", "src=", "href=", "alt=",
}

var symbolPairs = []string{
	"()", "{}", "[]", "=>", "==", "!=", "&&", "||", "+=", "-=", "/*", "*/", "...", "->",
}

var numberPunct = []string{",", ".", "!", "?"}

// Curated texts for multiplayer races. Every racer in a room types
// the same entry.
var raceTexts = []string{
	"Speed through the winding course of letters. Navigate the challenging turns of punctuation and acceleration zones of common words. Cross the finish line first by maintaining both speed and accuracy.",
	"The quick brown fox jumps over the lazy dog while the pack watches from the shade. Every racer knows that a clean start matters more than a furious finish.",
	"Great typists are not born at full speed. They build rhythm one word at a time, trust their fingers, and never look down at the keys when the pressure rises.",
	"A race is won in the quiet seconds between mistakes. Keep your pace steady, breathe, and let the words flow through your hands onto the track.",
}
