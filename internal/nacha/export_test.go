package nacha

var CheckLayouts = checkLayouts
